package services

import "github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"

// orderTransitions lists the statuses reachable from each order status.
// Statuses mapped to an empty list are terminal.
var orderTransitions = map[string][]string{
	models.OrderStatusPending:         {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing:      {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:         {models.OrderStatusDelivered},
	models.OrderStatusDelivered:       {models.OrderStatusReturnRequested},
	models.OrderStatusReturnRequested: {models.OrderStatusReturnApproved, models.OrderStatusReturnRejected},
	models.OrderStatusReturnApproved:  {models.OrderStatusReturnCompleted},
	models.OrderStatusReturnRejected:  {},
	models.OrderStatusReturnCompleted: {},
	models.OrderStatusCancelled:       {},
}

// OrderStatuses returns every known order status.
func OrderStatuses() []string {
	return []string{
		models.OrderStatusPending,
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusReturnRequested,
		models.OrderStatusReturnApproved,
		models.OrderStatusReturnRejected,
		models.OrderStatusReturnCompleted,
		models.OrderStatusCancelled,
	}
}

// GetAvailableStatuses returns the statuses an order in current may move to.
// Unknown statuses have none.
func GetAvailableStatuses(current string) []string {
	allowed := orderTransitions[current]
	out := make([]string, len(allowed))
	copy(out, allowed)
	return out
}

// CanTransition reports whether from -> to is a legal order status change.
func CanTransition(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further status change is possible.
func IsTerminalStatus(status string) bool {
	allowed, ok := orderTransitions[status]
	return ok && len(allowed) == 0
}
