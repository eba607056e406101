package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/awslens/awslens/internal/health"
	"github.com/awslens/awslens/internal/models"
)

// Sheet names in workbook order.
const (
	sheetSummary = "Summary"
	sheetEC2     = "EC2 Instances"
	sheetRDS     = "RDS Databases"
	sheetAlerts  = "Alerts"
)

// Fill and font colors matching the PDF theme.
const (
	xlsxHeaderFill = "1E3A5F"
	xlsxTitleColor = "1E3A5F"
	xlsxMutedColor = "7F8C8D"
)

// XLSXGenerator handles Excel workbook generation.
type XLSXGenerator struct{}

// NewXLSXGenerator creates a new XLSX generator.
func NewXLSXGenerator() *XLSXGenerator {
	return &XLSXGenerator{}
}

// workbookStyles holds the style IDs shared across sheets.
type workbookStyles struct {
	title  int
	header int
	muted  int
}

// Generate creates an Excel workbook from the snapshot.
func (g *XLSXGenerator) Generate(snap models.StateSnapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}

	styles, err := newWorkbookStyles(f)
	if err != nil {
		return nil, err
	}

	if err := g.writeSummarySheet(f, snap, styles); err != nil {
		return nil, fmt.Errorf("write summary sheet: %w", err)
	}
	if err := g.writeEC2Sheet(f, snap, styles); err != nil {
		return nil, fmt.Errorf("write EC2 sheet: %w", err)
	}
	if err := g.writeRDSSheet(f, snap, styles); err != nil {
		return nil, fmt.Errorf("write RDS sheet: %w", err)
	}
	if err := g.writeAlertsSheet(f, snap, styles); err != nil {
		return nil, fmt.Errorf("write alerts sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	var styles workbookStyles
	var err error

	styles.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14, Color: xlsxTitleColor},
	})
	if err != nil {
		return styles, fmt.Errorf("create title style: %w", err)
	}

	styles.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{xlsxHeaderFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return styles, fmt.Errorf("create header style: %w", err)
	}

	styles.muted, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 10, Color: xlsxMutedColor},
	})
	if err != nil {
		return styles, fmt.Errorf("create muted style: %w", err)
	}

	return styles, nil
}

// sheetBuilder appends rows to one sheet, keeping the first error.
type sheetBuilder struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func newSheetBuilder(f *excelize.File, sheet string) *sheetBuilder {
	return &sheetBuilder{f: f, sheet: sheet, row: 1}
}

// writeRow writes values starting at column A of the current row and
// advances to the next row.
func (b *sheetBuilder) writeRow(values ...any) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, b.row)
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetSheetRow(b.sheet, cell, &values); err != nil {
		b.err = fmt.Errorf("write %s row %d: %w", b.sheet, b.row, err)
		return
	}
	b.row++
}

func (b *sheetBuilder) skipRow() {
	b.row++
}

// styleRow applies a style to the given column span of the current row,
// without advancing. Used before writeRow for header rows.
func (b *sheetBuilder) styleRow(styleID, columns int) {
	if b.err != nil {
		return
	}
	start, err := excelize.CoordinatesToCellName(1, b.row)
	if err != nil {
		b.err = err
		return
	}
	end, err := excelize.CoordinatesToCellName(columns, b.row)
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetCellStyle(b.sheet, start, end, styleID); err != nil {
		b.err = fmt.Errorf("style %s row %d: %w", b.sheet, b.row, err)
	}
}

// addInventorySheet creates a data sheet with a styled, frozen header row.
func addInventorySheet(f *excelize.File, name string, styles workbookStyles, headers []any, widths map[string]float64) (*sheetBuilder, error) {
	if _, err := f.NewSheet(name); err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", name, err)
	}
	for cols, width := range widths {
		parts := strings.SplitN(cols, ":", 2)
		end := parts[0]
		if len(parts) == 2 {
			end = parts[1]
		}
		if err := f.SetColWidth(name, parts[0], end, width); err != nil {
			return nil, fmt.Errorf("set %s column widths: %w", name, err)
		}
	}
	if err := f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze %s header row: %w", name, err)
	}

	b := newSheetBuilder(f, name)
	b.styleRow(styles.header, len(headers))
	b.writeRow(headers...)
	return b, b.err
}

func (g *XLSXGenerator) writeSummarySheet(f *excelize.File, snap models.StateSnapshot, styles workbookStyles) error {
	if err := f.SetColWidth(sheetSummary, "A", "A", 26); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetSummary, "B", "C", 32); err != nil {
		return err
	}

	b := newSheetBuilder(f, sheetSummary)

	b.styleRow(styles.title, 1)
	b.writeRow("AWSLens Monitoring Report")
	b.styleRow(styles.muted, 1)
	b.writeRow("Generated " + time.Now().Format("January 2, 2006 15:04 MST"))
	b.skipRow()

	b.writeRow("Account", accountLabel(snap))
	if snap.Identity.ARN != "" {
		b.writeRow("Caller ARN", snap.Identity.ARN)
	}
	b.writeRow("Regions", strings.Join(snap.Regions, ", "))
	if !snap.LastPoll.IsZero() {
		b.writeRow("Inventory as of", snap.LastPoll.Format(time.RFC3339))
	}
	b.skipRow()

	b.styleRow(styles.header, 2)
	b.writeRow("Inventory", "Count")
	b.writeRow("EC2 instances", snap.Stats.EC2Total)
	b.writeRow("EC2 running", snap.Stats.EC2Running)
	b.writeRow("EC2 stopped", snap.Stats.EC2Stopped)
	b.writeRow("RDS databases", snap.Stats.RDSTotal)
	b.writeRow("RDS available", snap.Stats.RDSAvailable)
	b.skipRow()

	counts := models.CountAlerts(snap.ActiveAlerts)
	b.styleRow(styles.header, 2)
	b.writeRow("Active Alerts", "Count")
	b.writeRow("Critical", counts.Critical)
	b.writeRow("Warning", counts.Warning)
	b.writeRow("Total", counts.Total)
	b.skipRow()

	g.writeCostRows(b, styles, snap.Costs)

	b.styleRow(styles.header, 3)
	b.writeRow("Region", "Connected", "Error")
	for _, region := range snap.Regions {
		status := "yes"
		if !snap.ConnectionHealth[region] {
			status = "no"
		}
		b.writeRow(region, status, snap.RegionErrors[region])
	}

	return b.err
}

func (g *XLSXGenerator) writeCostRows(b *sheetBuilder, styles workbookStyles, costs models.CostSummary) {
	b.styleRow(styles.header, 2)
	b.writeRow("Costs", "USD")

	if !costs.Available {
		msg := costs.Message
		if msg == "" {
			msg = "cost data unavailable"
		}
		b.styleRow(styles.muted, 2)
		b.writeRow("Unavailable", msg)
		b.skipRow()
		return
	}

	b.writeRow("Month to date", costs.MonthToDate)
	b.writeRow("Last month", costs.LastMonth)
	forecastLabel := "Forecast"
	if costs.ForecastIsEstimate {
		forecastLabel = "Forecast (estimated)"
	}
	b.writeRow(forecastLabel, costs.Forecast)
	b.writeRow("Daily average", costs.DailyAvg)
	b.skipRow()

	if len(costs.TopServices) > 0 {
		b.styleRow(styles.header, 2)
		b.writeRow("Top Services", "USD")
		for _, svc := range costs.TopServices {
			b.writeRow(svc.Service, svc.Amount)
		}
		b.skipRow()
	}
}

func (g *XLSXGenerator) writeEC2Sheet(f *excelize.File, snap models.StateSnapshot, styles workbookStyles) error {
	widths := map[string]float64{
		"A:A": 22, "B:B": 26, "C:D": 14, "E:F": 16, "G:H": 16, "I:I": 22,
	}
	headers := []any{"Instance ID", "Name", "Type", "State", "Region", "AZ", "Private IP", "Public IP", "Launch Time"}

	b, err := addInventorySheet(f, sheetEC2, styles, headers, widths)
	if err != nil {
		return err
	}

	for _, inst := range snap.EC2Instances {
		b.writeRow(inst.ID, inst.Name, inst.Type, inst.State, inst.Region, inst.AZ, inst.PrivateIP, inst.PublicIP, inst.LaunchTime)
	}
	return b.err
}

func (g *XLSXGenerator) writeRDSSheet(f *excelize.File, snap models.StateSnapshot, styles workbookStyles) error {
	widths := map[string]float64{
		"A:A": 24, "B:C": 14, "D:D": 16, "E:E": 14, "F:G": 16, "H:I": 12, "J:J": 12, "K:P": 14,
	}
	headers := []any{"DB Identifier", "Engine", "Version", "Class", "Status", "Region", "AZ", "Multi-AZ", "Storage (GB)", "Health"}
	for _, metric := range health.MetricOrder {
		headers = append(headers, metricLabel(metric))
	}

	b, err := addInventorySheet(f, sheetRDS, styles, headers, widths)
	if err != nil {
		return err
	}

	reports := healthByID(snap.DBHealth)
	for _, db := range snap.RDSInstances {
		multiAZ := "no"
		if db.MultiAZ {
			multiAZ = "yes"
		}
		row := []any{db.ID, db.Engine, db.EngineVersion, db.Class, db.Status, db.Region, db.AZ, multiAZ, db.StorageGB}

		report, ok := reports[db.ID]
		if !ok {
			report = models.DBHealth{Overall: models.HealthUnknown}
		}
		row = append(row, string(report.Overall))

		displays := make(map[string]string, len(report.Metrics))
		for _, mh := range report.Metrics {
			displays[mh.Metric] = mh.Display
		}
		for _, metric := range health.MetricOrder {
			display := displays[metric]
			if display == "" {
				display = "N/A"
			}
			row = append(row, display)
		}

		b.writeRow(row...)
	}
	return b.err
}

func (g *XLSXGenerator) writeAlertsSheet(f *excelize.File, snap models.StateSnapshot, styles workbookStyles) error {
	widths := map[string]float64{
		"A:A": 12, "B:B": 14, "C:D": 22, "E:E": 14, "F:F": 44, "G:H": 20,
	}
	headers := []any{"Severity", "Resource Type", "Resource ID", "Name", "Region", "Message", "First Seen", "Last Seen"}

	b, err := addInventorySheet(f, sheetAlerts, styles, headers, widths)
	if err != nil {
		return err
	}

	for _, a := range snap.ActiveAlerts {
		b.writeRow(string(a.Severity), a.ResourceType, a.ResourceID, a.ResourceName, a.Region, a.Message,
			a.FirstSeen.Format(time.RFC3339), a.LastSeen.Format(time.RFC3339))
	}
	return b.err
}
