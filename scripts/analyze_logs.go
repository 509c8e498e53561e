package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LogStats summarises one day of order engine logs.
type LogStats struct {
	TotalErrors         int
	ItemRefunds         int
	ItemRefundsByMethod map[string]float64
	OrderRefunds        int
	OrderRefundTotal    float64
	LumpRefunds         int
	LumpRefundTotal     float64
	ItemsCancelled      int
	OrdersCancelled     int
	ReturnsRequested    int
	ReturnsApproved     int
	ReturnsRejected     int
	DispatchFailures    int
	CalculatorFallbacks int
	Transitions         map[string]int
	ErrorPatterns       map[string]int
}

func newLogStats() *LogStats {
	return &LogStats{
		ItemRefundsByMethod: make(map[string]float64),
		Transitions:         make(map[string]int),
		ErrorPatterns:       make(map[string]int),
	}
}

type logEntry struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

var (
	itemRefundRe  = regexp.MustCompile(`^Item refund completed - .*Amount: ([0-9.]+), Method: (\w+)`)
	orderRefundRe = regexp.MustCompile(`^Order refund completed - .*Total: ([0-9.]+)`)
	transitionRe  = regexp.MustCompile(`^Order status updated - Order ID: \d+, .+ -> (.+), Refund: ([0-9.]+)`)
	reviewRe      = regexp.MustCompile(`^Return reviewed - .*Approved: (true|false)`)
)

func main() {
	date := flag.String("date", time.Now().Format("2006-01-02"), "day to analyze (YYYY-MM-DD)")
	logDir := flag.String("dir", "./logs", "log directory")
	flag.Parse()

	stats := newLogStats()
	for _, kind := range []string{"info", "error"} {
		path := filepath.Join(*logDir, fmt.Sprintf("%s-%s.log", kind, *date))
		if err := analyzeFile(path, stats); err != nil {
			fmt.Printf("Error reading log file %s: %v\n", path, err)
		}
	}
	printReport(os.Stdout, stats, *date)
}

func analyzeFile(path string, stats *LogStats) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return analyze(file, stats)
}

func analyze(r io.Reader, stats *LogStats) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry logEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		analyzeEntry(entry, stats)
	}
	return scanner.Err()
}

func analyzeEntry(entry logEntry, stats *LogStats) {
	msg := entry.Msg
	if entry.Level == "error" {
		stats.TotalErrors++
		stats.ErrorPatterns[errorPattern(msg)]++
		switch {
		case strings.HasPrefix(msg, "Gateway refund failed"), strings.HasPrefix(msg, "Wallet credit failed"):
			stats.DispatchFailures++
		case strings.HasPrefix(msg, "Refund calculation fell back"):
			stats.CalculatorFallbacks++
		}
		return
	}

	if m := itemRefundRe.FindStringSubmatch(msg); m != nil {
		stats.ItemRefunds++
		stats.ItemRefundsByMethod[m[2]] += parseAmount(m[1])
		return
	}
	if m := orderRefundRe.FindStringSubmatch(msg); m != nil {
		stats.OrderRefunds++
		stats.OrderRefundTotal += parseAmount(m[1])
		return
	}
	if m := transitionRe.FindStringSubmatch(msg); m != nil {
		stats.Transitions[m[1]]++
		if m[1] == "Cancelled" {
			if amount := parseAmount(m[2]); amount > 0 {
				stats.LumpRefunds++
				stats.LumpRefundTotal += amount
			}
		}
		return
	}
	if m := reviewRe.FindStringSubmatch(msg); m != nil {
		if m[1] == "true" {
			stats.ReturnsApproved++
		} else {
			stats.ReturnsRejected++
		}
		return
	}

	switch {
	case strings.HasPrefix(msg, "Item cancelled - "):
		stats.ItemsCancelled++
	case strings.HasPrefix(msg, "Order cancelled - "):
		stats.OrdersCancelled++
	case strings.HasPrefix(msg, "Item return requested - "), strings.HasPrefix(msg, "Order return requested - "):
		stats.ReturnsRequested++
	}
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// errorPattern keeps the text before the first " - " so ids don't split
// otherwise identical errors.
func errorPattern(msg string) string {
	if i := strings.Index(msg, " - "); i > 0 {
		return msg[:i]
	}
	if i := strings.Index(msg, ":"); i > 0 {
		return msg[:i]
	}
	return msg
}

func printReport(w io.Writer, stats *LogStats, date string) {
	fmt.Fprintln(w, "\n=== Order Engine Log Report ===")
	fmt.Fprintln(w, "Day:", date)

	fmt.Fprintln(w, "\n1. Refunds:")
	fmt.Fprintf(w, "   Item refunds: %d\n", stats.ItemRefunds)
	for _, method := range sortedKeys(stats.ItemRefundsByMethod) {
		fmt.Fprintf(w, "     %s: %.2f\n", method, stats.ItemRefundsByMethod[method])
	}
	fmt.Fprintf(w, "   Whole-order refunds: %d (%.2f)\n", stats.OrderRefunds, stats.OrderRefundTotal)
	fmt.Fprintf(w, "   Admin cancellation refunds: %d (%.2f)\n", stats.LumpRefunds, stats.LumpRefundTotal)
	fmt.Fprintf(w, "   Dispatch failures: %d\n", stats.DispatchFailures)
	fmt.Fprintf(w, "   Calculator fallbacks: %d\n", stats.CalculatorFallbacks)

	fmt.Fprintln(w, "\n2. Order Activity:")
	fmt.Fprintf(w, "   Items cancelled: %d\n", stats.ItemsCancelled)
	fmt.Fprintf(w, "   Orders cancelled: %d\n", stats.OrdersCancelled)
	fmt.Fprintf(w, "   Returns requested: %d\n", stats.ReturnsRequested)
	fmt.Fprintf(w, "   Returns approved: %d, rejected: %d\n", stats.ReturnsApproved, stats.ReturnsRejected)
	for _, status := range sortedKeys(stats.Transitions) {
		fmt.Fprintf(w, "   -> %s: %d\n", status, stats.Transitions[status])
	}

	fmt.Fprintln(w, "\n3. Errors:")
	fmt.Fprintf(w, "   Total errors: %d\n", stats.TotalErrors)
	printTop(w, stats.ErrorPatterns, 5)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printTop(w io.Writer, counts map[string]int, limit int) {
	type kv struct {
		Key   string
		Count int
	}
	var sorted []kv
	for k, v := range counts {
		sorted = append(sorted, kv{k, v})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count == sorted[j].Count {
			return sorted[i].Key < sorted[j].Key
		}
		return sorted[i].Count > sorted[j].Count
	})
	for i, e := range sorted {
		if i >= limit {
			break
		}
		fmt.Fprintf(w, "   %s: %d\n", e.Key, e.Count)
	}
}
