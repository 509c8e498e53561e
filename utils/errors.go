package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AppError carries the HTTP status and client-facing message for an error
// raised below the controller layer.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// BadRequestError creates a 400 Bad Request error
func BadRequestError(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, message, err)
}

// ForbiddenError creates a 403 Forbidden error
func ForbiddenError(message string, err error) *AppError {
	return NewAppError(http.StatusForbidden, message, err)
}

// NotFoundError creates a 404 Not Found error
func NotFoundError(message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, message, err)
}

// ConflictError creates a 409 Conflict error
func ConflictError(message string, err error) *AppError {
	return NewAppError(http.StatusConflict, message, err)
}

// GetAppError returns the AppError in err's chain, if any.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// RespondWithError writes err as a StandardResponse carrying only the
// client-facing message. The wrapped error is logged, never sent.
func RespondWithError(c *gin.Context, err error) {
	appErr := GetAppError(err)
	if appErr == nil {
		LogError("Unhandled error: %v", err)
		InternalServerError(c, "Something went wrong, please try again", nil)
		return
	}
	if appErr.Err != nil {
		if appErr.Code >= http.StatusInternalServerError {
			LogError("%s: %v", appErr.Message, appErr.Err)
		} else {
			LogInfo("%s: %v", appErr.Message, appErr.Err)
		}
	}
	Error(c, appErr.Code, appErr.Message, nil)
}
