package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `{"level":"info","time":"2024-03-10T12:00:00Z","msg":"Item refund completed - Order ID: 4, Item ID: 5, Amount: 270.00, Method: wallet"}
{"level":"info","time":"2024-03-10T12:00:00Z","msg":"Item cancelled - Order ID: 4, Item ID: 5, Refund: 270.00"}
{"level":"info","time":"2024-03-10T12:01:00Z","msg":"Item refund completed - Order ID: 9, Item ID: 10, Amount: 100.50, Method: gateway"}
{"level":"info","time":"2024-03-10T12:02:00Z","msg":"Order refund completed - Order ID: 12, Total: 720.00, Items: 3, Failures: 0"}
{"level":"info","time":"2024-03-10T12:02:00Z","msg":"Order cancelled - Order ID: 12, Refund: 720.00, Failures: 0"}
{"level":"info","time":"2024-03-10T12:03:00Z","msg":"Order status updated - Order ID: 20, Processing -> Cancelled, Refund: 700.00, Diagnostics: 0"}
{"level":"info","time":"2024-03-10T12:04:00Z","msg":"Order status updated - Order ID: 21, Shipped -> Delivered, Refund: 0.00, Diagnostics: 0"}
{"level":"info","time":"2024-03-10T12:05:00Z","msg":"Item return requested - Order ID: 21, Item ID: 30"}
{"level":"info","time":"2024-03-10T12:06:00Z","msg":"Return reviewed - Order ID: 21, Item ID: 30, Approved: false, Refund: 0.00"}
{"level":"error","time":"2024-03-10T12:07:00Z","msg":"Gateway refund failed - Order ID: 9, Item ID: 11: timeout"}
{"level":"error","time":"2024-03-10T12:08:00Z","msg":"Gateway refund failed - Order ID: 9, Item ID: 12: timeout"}
not json
`

func TestAnalyzeCountsOrderEngineEvents(t *testing.T) {
	stats := newLogStats()
	require.NoError(t, analyze(strings.NewReader(sampleLog), stats))

	assert.Equal(t, 2, stats.ItemRefunds)
	assert.Equal(t, 270.0, stats.ItemRefundsByMethod["wallet"])
	assert.Equal(t, 100.5, stats.ItemRefundsByMethod["gateway"])
	assert.Equal(t, 1, stats.OrderRefunds)
	assert.Equal(t, 720.0, stats.OrderRefundTotal)
	assert.Equal(t, 1, stats.LumpRefunds)
	assert.Equal(t, 700.0, stats.LumpRefundTotal)
	assert.Equal(t, 1, stats.ItemsCancelled)
	assert.Equal(t, 1, stats.OrdersCancelled)
	assert.Equal(t, 1, stats.ReturnsRequested)
	assert.Equal(t, 1, stats.ReturnsRejected)
	assert.Equal(t, map[string]int{"Cancelled": 1, "Delivered": 1}, stats.Transitions)
	assert.Equal(t, 2, stats.TotalErrors)
	assert.Equal(t, 2, stats.DispatchFailures)
	assert.Equal(t, 2, stats.ErrorPatterns["Gateway refund failed"])
}

func TestPrintReport(t *testing.T) {
	stats := newLogStats()
	require.NoError(t, analyze(strings.NewReader(sampleLog), stats))

	var out bytes.Buffer
	printReport(&out, stats, "2024-03-10")
	assert.Contains(t, out.String(), "wallet: 270.00")
	assert.Contains(t, out.String(), "Admin cancellation refunds: 1 (700.00)")
	assert.Contains(t, out.String(), "Gateway refund failed: 2")
}
