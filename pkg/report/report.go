// Package report renders dashboard state as downloadable documents.
// Generators are pure: snapshot in, bytes out.
package report

import (
	"fmt"

	"github.com/awslens/awslens/internal/models"
)

// XLSX renders the snapshot as a styled Excel workbook.
func XLSX(snap models.StateSnapshot) ([]byte, error) {
	return NewXLSXGenerator().Generate(snap)
}

// PDF renders the snapshot as an A4 PDF report.
func PDF(snap models.StateSnapshot) ([]byte, error) {
	return NewPDFGenerator().Generate(snap)
}

// CostsCSV renders the cost summary as a flat CSV.
func CostsCSV(snap models.StateSnapshot) ([]byte, error) {
	return NewCSVGenerator().Generate(snap)
}

// metricLabels maps CloudWatch metric names to column headings.
var metricLabels = map[string]string{
	"CPUUtilization":      "CPU",
	"FreeableMemory":      "Free Memory",
	"ReadLatency":         "Read Latency",
	"WriteLatency":        "Write Latency",
	"DiskQueueDepth":      "Disk Queue",
	"DatabaseConnections": "Connections",
}

func metricLabel(metric string) string {
	if label, ok := metricLabels[metric]; ok {
		return label
	}
	return metric
}

// healthByID indexes health reports for inventory table lookups.
func healthByID(reports []models.DBHealth) map[string]models.DBHealth {
	byID := make(map[string]models.DBHealth, len(reports))
	for _, h := range reports {
		byID[h.ResourceID] = h
	}
	return byID
}

// accountLabel names the account a snapshot came from.
func accountLabel(snap models.StateSnapshot) string {
	account := snap.Identity.Account
	if account == "" {
		account = "unknown account"
	}
	if snap.DemoMode {
		return account + " (demo)"
	}
	return account
}

func formatUSD(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
