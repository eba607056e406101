package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/awslens/awslens/internal/models"
)

// CSVGenerator handles cost CSV generation.
type CSVGenerator struct{}

// NewCSVGenerator creates a new CSV generator.
func NewCSVGenerator() *CSVGenerator {
	return &CSVGenerator{}
}

// Generate creates a flat CSV of the snapshot's cost summary.
func (g *CSVGenerator) Generate(snap models.StateSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := g.writeHeader(w, snap); err != nil {
		return nil, fmt.Errorf("write CSV header section: %w", err)
	}

	costs := snap.Costs
	if !costs.Available {
		msg := costs.Message
		if msg == "" {
			msg = "cost data unavailable"
		}
		if err := w.Write([]string{"# Cost data unavailable:", msg}); err != nil {
			return nil, fmt.Errorf("write CSV unavailable notice: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("CSV write error: %w", err)
		}
		return buf.Bytes(), nil
	}

	if err := g.writeTotals(w, costs); err != nil {
		return nil, fmt.Errorf("write CSV totals section: %w", err)
	}

	serviceRows := make([][]string, 0, len(costs.TopServices))
	for _, svc := range costs.TopServices {
		serviceRows = append(serviceRows, []string{svc.Service, formatAmount(svc.Amount)})
	}
	if err := g.writeSection(w, "# SERVICES", []string{"Service", "AmountUSD"}, serviceRows); err != nil {
		return nil, err
	}

	regionRows := make([][]string, 0, len(costs.Regions))
	for _, rc := range costs.Regions {
		regionRows = append(regionRows, []string{rc.Region, formatAmount(rc.Amount)})
	}
	if err := g.writeSection(w, "# REGIONS", []string{"Region", "AmountUSD"}, regionRows); err != nil {
		return nil, err
	}

	if len(costs.RDSByUsageType) > 0 {
		usageRows := make([][]string, 0, len(costs.RDSByUsageType))
		for _, uc := range costs.RDSByUsageType {
			usageRows = append(usageRows, []string{uc.UsageType, formatAmount(uc.Amount)})
		}
		if err := g.writeSection(w, "# RDS USAGE TYPES", []string{"UsageType", "AmountUSD"}, usageRows); err != nil {
			return nil, err
		}
	}

	if len(costs.RDSDaily) > 0 {
		dailyRows := make([][]string, 0, len(costs.RDSDaily))
		for _, dc := range costs.RDSDaily {
			dailyRows = append(dailyRows, []string{dc.Date, formatAmount(dc.Amount)})
		}
		if err := g.writeSection(w, "# RDS DAILY", []string{"Date", "AmountUSD"}, dailyRows); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("CSV write error: %w", err)
	}
	return buf.Bytes(), nil
}

// writeHeader writes the report header comment rows.
func (g *CSVGenerator) writeHeader(w *csv.Writer, snap models.StateSnapshot) error {
	headers := [][]string{
		{"# AWSLens Cost Report"},
		{"# Account:", accountLabel(snap)},
		{"# Generated:", time.Now().UTC().Format(time.RFC3339)},
	}
	if !snap.Costs.FetchedAt.IsZero() {
		headers = append(headers, []string{"# Fetched:", snap.Costs.FetchedAt.UTC().Format(time.RFC3339)})
	}
	headers = append(headers, []string{""})

	for _, row := range headers {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write header row %q: %w", row[0], err)
		}
	}
	return nil
}

// writeTotals writes the month-level totals section.
func (g *CSVGenerator) writeTotals(w *csv.Writer, costs models.CostSummary) error {
	forecastLabel := "Forecast"
	if costs.ForecastIsEstimate {
		forecastLabel = "Forecast (estimated)"
	}
	rows := [][]string{
		{"MonthToDate", formatAmount(costs.MonthToDate)},
		{"LastMonth", formatAmount(costs.LastMonth)},
		{forecastLabel, formatAmount(costs.Forecast)},
		{"DailyAverage", formatAmount(costs.DailyAvg)},
	}
	return g.writeSection(w, "# TOTALS", []string{"Period", "AmountUSD"}, rows)
}

// writeSection writes one titled section with a column header row,
// data rows, and a trailing separator row.
func (g *CSVGenerator) writeSection(w *csv.Writer, title string, columns []string, rows [][]string) error {
	if err := w.Write([]string{title}); err != nil {
		return fmt.Errorf("write %s section heading: %w", title, err)
	}
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("write %s column headers: %w", title, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s row %q: %w", title, row[0], err)
		}
	}
	if err := w.Write([]string{""}); err != nil {
		return fmt.Errorf("write %s separator row: %w", title, err)
	}
	return nil
}

// formatAmount renders a dollar amount as a plain decimal for CSV cells.
func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
