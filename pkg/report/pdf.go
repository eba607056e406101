package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/awslens/awslens/internal/models"
)

// Color scheme - professional dark blue theme
var (
	colorPrimary     = [3]int{30, 58, 95}    // Dark navy
	colorAccent      = [3]int{46, 204, 113}  // Green
	colorWarning     = [3]int{241, 196, 15}  // Yellow
	colorDanger      = [3]int{231, 76, 60}   // Red
	colorTextDark    = [3]int{44, 62, 80}    // Dark text
	colorTextMuted   = [3]int{127, 140, 141} // Muted text
	colorBackground  = [3]int{248, 249, 250} // Light gray bg
	colorTableHeader = [3]int{30, 58, 95}    // Navy header
	colorTableAlt    = [3]int{241, 245, 249} // Alternating row
	colorGridLine    = [3]int{220, 220, 220} // Box borders
)

// PDFGenerator handles PDF report generation.
type PDFGenerator struct{}

// NewPDFGenerator creates a new PDF generator.
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Generate creates a PDF report from the snapshot.
func (g *PDFGenerator) Generate(snap models.StateSnapshot) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)

	g.writeCoverPage(pdf, snap)

	pdf.AddPage()
	g.addPageHeader(pdf, snap, "Summary")
	g.writeSummaryPage(pdf, snap)

	pdf.AddPage()
	g.addPageHeader(pdf, snap, "EC2 Instances")
	g.writeEC2Table(pdf, snap)

	pdf.AddPage()
	g.addPageHeader(pdf, snap, "RDS Databases")
	g.writeRDSTable(pdf, snap)

	if len(snap.ActiveAlerts) > 0 {
		pdf.AddPage()
		g.addPageHeader(pdf, snap, "Active Alerts")
		g.writeAlertsTable(pdf, snap)
	}

	// Page numbers on all pages except the cover
	g.addPageNumbers(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output error: %w", err)
	}
	return buf.Bytes(), nil
}

// writeCoverPage creates the cover page.
func (g *PDFGenerator) writeCoverPage(pdf *fpdf.Fpdf, snap models.StateSnapshot) {
	pdf.AddPage()

	pageWidth, pageHeight := pdf.GetPageSize()

	// Top accent bar
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, 0, pageWidth, 8, "F")

	// Branding area
	pdf.SetY(50)
	pdf.SetFont("Arial", "B", 32)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 15, "AWSLENS", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 8, "AWS Monitoring", "", 1, "C", false, 0, "")

	// Main title
	pdf.SetY(100)
	pdf.SetFont("Arial", "B", 28)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 12, "Inventory Report", "", 1, "C", false, 0, "")

	// Account info box
	pdf.SetY(130)
	boxX := 40.0
	boxWidth := pageWidth - 80
	boxHeight := 50.0

	pdf.SetFillColor(colorBackground[0], colorBackground[1], colorBackground[2])
	pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])
	pdf.RoundedRect(boxX, pdf.GetY(), boxWidth, boxHeight, 3, "1234", "FD")

	pdf.SetY(pdf.GetY() + 10)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 7, "ACCOUNT", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 10, accountLabel(snap), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	regions := strings.Join(snap.Regions, ", ")
	if regions == "" {
		regions = "no regions"
	}
	pdf.CellFormat(0, 7, regions, "", 1, "C", false, 0, "")

	// Data freshness
	pdf.SetY(200)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 7, "DATA AS OF", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	asOf := "no poll completed yet"
	if !snap.LastPoll.IsZero() {
		asOf = snap.LastPoll.Format("January 2, 2006 15:04 MST")
	}
	pdf.CellFormat(0, 8, asOf, "", 1, "C", false, 0, "")

	// Bottom section
	pdf.SetY(pageHeight - 50)
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format("January 2, 2006 at 15:04 MST")), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("%d EC2 instances and %d RDS databases across %d regions",
		snap.Stats.EC2Total, snap.Stats.RDSTotal, snap.Stats.Regions), "", 1, "C", false, 0, "")

	// Bottom accent bar
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, pageHeight-8, pageWidth, 8, "F")
}

// writeSummaryPage writes the fleet health card, quick stats and costs.
func (g *PDFGenerator) writeSummaryPage(pdf *fpdf.Fpdf, snap models.StateSnapshot) {
	pageWidth, _ := pdf.GetPageSize()
	counts := models.CountAlerts(snap.ActiveAlerts)

	healthStatus := "HEALTHY"
	healthColor := colorAccent
	healthMessage := "All monitored resources operating normally"
	if counts.Critical > 0 {
		healthStatus = "CRITICAL"
		healthColor = colorDanger
		if counts.Critical == 1 {
			healthMessage = "1 critical alert requires immediate attention"
		} else {
			healthMessage = fmt.Sprintf("%d critical alerts require immediate attention", counts.Critical)
		}
	} else if counts.Warning > 0 {
		healthStatus = "WARNING"
		healthColor = colorWarning
		if counts.Warning == 1 {
			healthMessage = "1 warning detected - review recommended"
		} else {
			healthMessage = fmt.Sprintf("%d warnings detected - review recommended", counts.Warning)
		}
	}

	// Fleet status card
	cardX := 20.0
	cardWidth := pageWidth - 40
	cardHeight := 35.0

	pdf.SetFillColor(healthColor[0], healthColor[1], healthColor[2])
	pdf.RoundedRect(cardX, pdf.GetY(), cardWidth, cardHeight, 3, "1234", "F")

	pdf.SetXY(cardX, pdf.GetY()+8)
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(cardWidth, 12, healthStatus, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(cardWidth, 8, healthMessage, "", 1, "C", false, 0, "")

	pdf.SetY(pdf.GetY() + 15)

	// Quick stats
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 8, "Quick Stats", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	colWidth := 42.5
	pdf.SetFillColor(colorBackground[0], colorBackground[1], colorBackground[2])
	pdf.SetFont("Arial", "B", 9)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(colWidth, 7, "EC2 Running", "0", 0, "C", true, 0, "")
	pdf.CellFormat(colWidth, 7, "RDS Available", "0", 0, "C", true, 0, "")
	pdf.CellFormat(colWidth, 7, "Regions", "0", 0, "C", true, 0, "")
	pdf.CellFormat(colWidth, 7, "Alerts", "0", 1, "C", true, 0, "")

	alertColor := colorAccent
	if counts.Total > 0 {
		alertColor = colorDanger
	}

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(colWidth, 9, fmt.Sprintf("%d / %d", snap.Stats.EC2Running, snap.Stats.EC2Total), "0", 0, "C", false, 0, "")
	pdf.CellFormat(colWidth, 9, fmt.Sprintf("%d / %d", snap.Stats.RDSAvailable, snap.Stats.RDSTotal), "0", 0, "C", false, 0, "")
	pdf.CellFormat(colWidth, 9, fmt.Sprintf("%d", snap.Stats.Regions), "0", 0, "C", false, 0, "")
	pdf.SetTextColor(alertColor[0], alertColor[1], alertColor[2])
	pdf.CellFormat(colWidth, 9, fmt.Sprintf("%d", counts.Total), "0", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 7)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(colWidth, 5, "of total", "0", 0, "C", false, 0, "")
	pdf.CellFormat(colWidth, 5, "of total", "0", 0, "C", false, 0, "")
	pdf.CellFormat(colWidth, 5, "monitored", "0", 0, "C", false, 0, "")
	pdf.CellFormat(colWidth, 5, fmt.Sprintf("%d critical, %d warning", counts.Critical, counts.Warning), "0", 1, "C", false, 0, "")

	pdf.Ln(8)

	g.writeCostSummary(pdf, snap.Costs)
	g.writeRegionStatus(pdf, snap)
}

func (g *PDFGenerator) writeCostSummary(pdf *fpdf.Fpdf, costs models.CostSummary) {
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 8, "Costs", "", 1, "L", false, 0, "")
	pdf.Ln(1)

	if !costs.Available {
		msg := costs.Message
		if msg == "" {
			msg = "cost data unavailable"
		}
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		pdf.CellFormat(0, 6, truncate(msg, 90), "", 1, "L", false, 0, "")
		pdf.Ln(6)
		return
	}

	writeCostLine := func(label, value string) {
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		pdf.CellFormat(45, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 9)
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
		pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
	}

	writeCostLine("Month to date:", formatUSD(costs.MonthToDate))
	writeCostLine("Last month:", formatUSD(costs.LastMonth))
	forecast := formatUSD(costs.Forecast)
	if costs.ForecastIsEstimate {
		forecast += " (estimated)"
	}
	writeCostLine("Forecast:", forecast)
	writeCostLine("Daily average:", formatUSD(costs.DailyAvg))

	if len(costs.TopServices) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		pdf.CellFormat(0, 6, "Top services:", "", 1, "L", false, 0, "")
		for _, svc := range costs.TopServices {
			pdf.SetFont("Arial", "", 9)
			pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
			pdf.CellFormat(100, 5, "  "+truncate(svc.Service, 50), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 5, formatUSD(svc.Amount), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(6)
}

func (g *PDFGenerator) writeRegionStatus(pdf *fpdf.Fpdf, snap models.StateSnapshot) {
	if len(snap.Regions) == 0 {
		return
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 8, "Region Status", "", 1, "L", false, 0, "")
	pdf.Ln(1)

	for _, region := range snap.Regions {
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
		pdf.CellFormat(45, 6, region, "", 0, "L", false, 0, "")

		if snap.ConnectionHealth[region] {
			pdf.SetTextColor(colorAccent[0], colorAccent[1], colorAccent[2])
			pdf.CellFormat(0, 6, "connected", "", 1, "L", false, 0, "")
		} else {
			pdf.SetTextColor(colorDanger[0], colorDanger[1], colorDanger[2])
			msg := snap.RegionErrors[region]
			if msg == "" {
				msg = "unreachable"
			}
			pdf.CellFormat(0, 6, truncate(msg, 70), "", 1, "L", false, 0, "")
		}
	}
}

// tableLayout describes one striped inventory table.
type tableLayout struct {
	section   string
	colWidths []float64
	headers   []string
}

// drawTableHeader renders the header row of a table.
func (g *PDFGenerator) drawTableHeader(pdf *fpdf.Fpdf, layout tableLayout) {
	pdf.SetFillColor(colorTableHeader[0], colorTableHeader[1], colorTableHeader[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 8)

	for i, header := range layout.headers {
		pdf.CellFormat(layout.colWidths[i], 7, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
}

// tableRowPrep handles the page break and stripe fill for one table row,
// returning the fill flag to pass to CellFormat.
func (g *PDFGenerator) tableRowPrep(pdf *fpdf.Fpdf, snap models.StateSnapshot, layout tableLayout, fill *bool) bool {
	if pdf.GetY() > 260 {
		pdf.AddPage()
		g.addPageHeader(pdf, snap, layout.section+" (continued)")
		g.drawTableHeader(pdf, layout)
		*fill = false
	}
	if *fill {
		pdf.SetFillColor(colorTableAlt[0], colorTableAlt[1], colorTableAlt[2])
	} else {
		pdf.SetFillColor(255, 255, 255)
	}
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	return *fill
}

func (g *PDFGenerator) writeEC2Table(pdf *fpdf.Fpdf, snap models.StateSnapshot) {
	if len(snap.EC2Instances) == 0 {
		pdf.SetFont("Arial", "I", 11)
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		pdf.CellFormat(0, 10, "No EC2 instances discovered.", "", 1, "L", false, 0, "")
		return
	}

	layout := tableLayout{
		section:   "EC2 Instances",
		colWidths: []float64{32, 28, 20, 16, 22, 24, 28},
		headers:   []string{"Instance ID", "Name", "Type", "State", "Region", "AZ", "Private IP"},
	}
	g.drawTableHeader(pdf, layout)

	fill := false
	for _, inst := range snap.EC2Instances {
		rowFill := g.tableRowPrep(pdf, snap, layout, &fill)

		pdf.CellFormat(layout.colWidths[0], 6, inst.ID, "1", 0, "L", rowFill, 0, "")
		pdf.CellFormat(layout.colWidths[1], 6, truncate(inst.Name, 18), "1", 0, "L", rowFill, 0, "")
		pdf.CellFormat(layout.colWidths[2], 6, inst.Type, "1", 0, "C", rowFill, 0, "")

		switch inst.State {
		case "running":
			pdf.SetTextColor(colorAccent[0], colorAccent[1], colorAccent[2])
		case "stopped":
			pdf.SetTextColor(colorWarning[0], colorWarning[1], colorWarning[2])
		default:
			pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		}
		pdf.CellFormat(layout.colWidths[3], 6, inst.State, "1", 0, "C", rowFill, 0, "")
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])

		pdf.CellFormat(layout.colWidths[4], 6, inst.Region, "1", 0, "C", rowFill, 0, "")
		pdf.CellFormat(layout.colWidths[5], 6, inst.AZ, "1", 0, "C", rowFill, 0, "")
		pdf.CellFormat(layout.colWidths[6], 6, inst.PrivateIP, "1", 0, "C", rowFill, 0, "")

		pdf.Ln(-1)
		fill = !fill
	}
}

func (g *PDFGenerator) writeRDSTable(pdf *fpdf.Fpdf, snap models.StateSnapshot) {
	if len(snap.RDSInstances) == 0 {
		pdf.SetFont("Arial", "I", 11)
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		pdf.CellFormat(0, 10, "No RDS databases discovered.", "", 1, "L", false, 0, "")
		return
	}

	layout := tableLayout{
		section:   "RDS Databases",
		colWidths: []float64{34, 20, 26, 22, 26, 22, 20},
		headers:   []string{"DB Identifier", "Engine", "Class", "Status", "Region", "Health", "Multi-AZ"},
	}
	g.drawTableHeader(pdf, layout)

	reports := healthByID(snap.DBHealth)
	fill := false
	for _, db := range snap.RDSInstances {
		rowFill := g.tableRowPrep(pdf, snap, layout, &fill)

		pdf.CellFormat(layout.colWidths[0], 6, truncate(db.ID, 22), "1", 0, "L", rowFill, 0, "")
		pdf.CellFormat(layout.colWidths[1], 6, db.Engine, "1", 0, "C", rowFill, 0, "")
		pdf.CellFormat(layout.colWidths[2], 6, db.Class, "1", 0, "C", rowFill, 0, "")

		if db.Status == "available" {
			pdf.SetTextColor(colorAccent[0], colorAccent[1], colorAccent[2])
		} else {
			pdf.SetTextColor(colorWarning[0], colorWarning[1], colorWarning[2])
		}
		pdf.CellFormat(layout.colWidths[3], 6, truncate(db.Status, 14), "1", 0, "C", rowFill, 0, "")
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])

		pdf.CellFormat(layout.colWidths[4], 6, db.Region, "1", 0, "C", rowFill, 0, "")

		overall := models.HealthUnknown
		if report, ok := reports[db.ID]; ok {
			overall = report.Overall
		}
		hc := healthColor(overall)
		pdf.SetTextColor(hc[0], hc[1], hc[2])
		pdf.CellFormat(layout.colWidths[5], 6, string(overall), "1", 0, "C", rowFill, 0, "")
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])

		multiAZ := "no"
		if db.MultiAZ {
			multiAZ = "yes"
		}
		pdf.CellFormat(layout.colWidths[6], 6, multiAZ, "1", 0, "C", rowFill, 0, "")

		pdf.Ln(-1)
		fill = !fill
	}
}

func (g *PDFGenerator) writeAlertsTable(pdf *fpdf.Fpdf, snap models.StateSnapshot) {
	layout := tableLayout{
		section:   "Active Alerts",
		colWidths: []float64{20, 38, 24, 66, 22},
		headers:   []string{"Severity", "Resource", "Region", "Message", "Since"},
	}
	g.drawTableHeader(pdf, layout)

	fill := false
	for _, alert := range snap.ActiveAlerts {
		rowFill := g.tableRowPrep(pdf, snap, layout, &fill)

		sc := severityColor(alert.Severity)
		pdf.SetTextColor(sc[0], sc[1], sc[2])
		pdf.CellFormat(layout.colWidths[0], 6, string(alert.Severity), "1", 0, "C", rowFill, 0, "")
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])

		resource := alert.ResourceID
		if alert.ResourceName != "" && alert.ResourceName != alert.ResourceID {
			resource = fmt.Sprintf("%s (%s)", alert.ResourceID, alert.ResourceName)
		}
		pdf.CellFormat(layout.colWidths[1], 6, truncate(resource, 26), "1", 0, "L", rowFill, 0, "")
		pdf.CellFormat(layout.colWidths[2], 6, alert.Region, "1", 0, "C", rowFill, 0, "")
		pdf.CellFormat(layout.colWidths[3], 6, truncate(alert.Message, 46), "1", 0, "L", rowFill, 0, "")
		pdf.CellFormat(layout.colWidths[4], 6, alert.FirstSeen.Format("Jan 02 15:04"), "1", 0, "C", rowFill, 0, "")

		pdf.Ln(-1)
		fill = !fill
	}
}

// addPageHeader adds a consistent header to content pages.
func (g *PDFGenerator) addPageHeader(pdf *fpdf.Fpdf, snap models.StateSnapshot, section string) {
	pageWidth, _ := pdf.GetPageSize()

	// Top line
	pdf.SetDrawColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetLineWidth(0.5)
	pdf.Line(20, 15, pageWidth-20, 15)

	// Header text
	pdf.SetY(18)
	pdf.SetFont("Arial", "B", 9)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 5, "AWSLENS MONITORING REPORT", "", 0, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 5, accountLabel(snap), "", 1, "R", false, 0, "")

	// Section title
	pdf.SetY(30)
	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 10, section, "", 1, "L", false, 0, "")

	pdf.Ln(5)
}

// addPageNumbers writes footers on every page after the cover.
func (g *PDFGenerator) addPageNumbers(pdf *fpdf.Fpdf) {
	// Disable auto page break while adding footers to prevent creating new pages
	pdf.SetAutoPageBreak(false, 0)

	totalPages := pdf.PageCount()

	for i := 2; i <= totalPages; i++ {
		pdf.SetPage(i)
		pageWidth, pageHeight := pdf.GetPageSize()

		pdf.SetY(pageHeight - 15)
		pdf.SetFont("Arial", "", 8)
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])

		pageNum := i - 1
		totalContent := totalPages - 1
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of %d", pageNum, totalContent), "", 0, "C", false, 0, "")

		pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])
		pdf.SetLineWidth(0.3)
		pdf.Line(20, pageHeight-18, pageWidth-20, pageHeight-18)
	}
}

func severityColor(sev models.AlertSeverity) [3]int {
	if sev == models.SeverityCritical {
		return colorDanger
	}
	return colorWarning
}

func healthColor(status models.HealthStatus) [3]int {
	switch status {
	case models.HealthHealthy:
		return colorAccent
	case models.HealthWarning:
		return colorWarning
	case models.HealthCritical:
		return colorDanger
	default:
		return colorTextMuted
	}
}
