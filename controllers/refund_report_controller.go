package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
)

const (
	reportDateLayout    = "2006-01-02"
	defaultReportPeriod = 30 * 24 * time.Hour
)

// RefundLister reads the refund log across orders.
type RefundLister interface {
	ListRefundTransactions(ctx context.Context, from, to time.Time) ([]models.RefundTransaction, error)
}

type RefundReportController struct {
	refunds RefundLister
	now     func() time.Time
}

func NewRefundReportController(refunds RefundLister) *RefundReportController {
	return &RefundReportController{refunds: refunds, now: time.Now}
}

// ExportRefunds writes the refund log between ?from and ?to (inclusive,
// YYYY-MM-DD) as an Excel sheet. Defaults to the last 30 days.
func (ctl *RefundReportController) ExportRefunds(c *gin.Context) {
	utils.LogInfo("ExportRefunds called")

	to := ctl.now()
	from := to.Add(-defaultReportPeriod)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(reportDateLayout, v)
		if err != nil {
			utils.BadRequest(c, "Invalid from date, expected YYYY-MM-DD", nil)
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(reportDateLayout, v)
		if err != nil {
			utils.BadRequest(c, "Invalid to date, expected YYYY-MM-DD", nil)
			return
		}
		to = t.Add(24 * time.Hour)
	}
	if !from.Before(to) {
		utils.BadRequest(c, "from must be before to", nil)
		return
	}

	refunds, err := ctl.refunds.ListRefundTransactions(c.Request.Context(), from, to)
	if err != nil {
		utils.LogError("Failed to list refund transactions: %v", err)
		utils.InternalServerError(c, "Failed to load refunds", nil)
		return
	}
	utils.LogDebug("Exporting %d refund transactions", len(refunds))

	file, err := buildRefundSheet(refunds, from, to)
	if err != nil {
		utils.LogError("Failed to create Excel sheet: %v", err)
		utils.InternalServerError(c, "Failed to create Excel sheet", nil)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=refunds_%s_%s.xlsx",
		from.Format(reportDateLayout), to.Add(-time.Nanosecond).Format(reportDateLayout)))
	if err := file.Write(c.Writer); err != nil {
		utils.LogError("Failed to write Excel file: %v", err)
	}
}

var refundSheetHeaders = []string{"Refund ID", "Order ID", "Item ID", "Date", "Type", "Amount", "Status", "Reason", "Gateway Refund ID"}

func buildRefundSheet(refunds []models.RefundTransaction, from, to time.Time) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Refunds")
	if err != nil {
		return nil, err
	}

	bold := xlsx.NewStyle()
	font := xlsx.DefaultFont()
	font.Bold = true
	bold.Font = *font

	title := sheet.AddRow()
	title.AddCell().SetString("DERRY WORLD - Refund Report")
	title.Cells[0].SetStyle(bold)
	sheet.AddRow().AddCell().SetString("Period: " + from.Format(reportDateLayout) + " to " + to.Add(-time.Nanosecond).Format(reportDateLayout))
	sheet.AddRow()

	headerRow := sheet.AddRow()
	for _, h := range refundSheetHeaders {
		cell := headerRow.AddCell()
		cell.SetString(h)
		cell.SetStyle(bold)
	}

	var walletTotal, gatewayTotal float64
	for _, rt := range refunds {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(rt.ID))
		row.AddCell().SetInt(int(rt.OrderID))
		if rt.OrderItemID != nil {
			row.AddCell().SetInt(int(*rt.OrderItemID))
		} else {
			row.AddCell().SetString("-")
		}
		row.AddCell().SetString(rt.CreatedAt.Format("2006-01-02 15:04"))
		row.AddCell().SetString(rt.Type)
		row.AddCell().SetFloat(rt.Amount)
		row.AddCell().SetString(rt.Status)
		row.AddCell().SetString(rt.Reason)
		row.AddCell().SetString(rt.ExternalRefundID)

		switch rt.Type {
		case models.RefundTypeRazorpay:
			gatewayTotal += rt.Amount
		default:
			walletTotal += rt.Amount
		}
	}

	sheet.AddRow()
	summaryRow := sheet.AddRow()
	summaryRow.AddCell().SetString("Summary")
	summaryRow.Cells[0].SetStyle(bold)

	summaryData := [][]string{
		{"Refund Count", fmt.Sprintf("%d", len(refunds))},
		{"Wallet Refunds", utils.FormatMoney(walletTotal)},
		{"Gateway Refunds", utils.FormatMoney(gatewayTotal)},
		{"Total Refunded", utils.FormatMoney(walletTotal + gatewayTotal)},
	}
	for _, data := range summaryData {
		row := sheet.AddRow()
		row.AddCell().SetString(data[0])
		row.AddCell().SetString(data[1])
	}
	return file, nil
}
