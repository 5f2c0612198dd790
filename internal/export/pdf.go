package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

type rgb struct{ r, g, b int }

var statusColors = map[models.TaskStatus]rgb{
	models.StatusToDo:       {149, 165, 166},
	models.StatusInProgress: {52, 152, 219},
	models.StatusBlocked:    {231, 76, 60},
	models.StatusTesting:    {241, 196, 15},
	models.StatusComplete:   {46, 204, 113},
}

type pdfColumn struct {
	title string
	width float64
}

var (
	projectColumns = []pdfColumn{
		{"Name", 48}, {"Squad", 28}, {"SPOC", 24}, {"Status", 22},
		{"Start", 22}, {"Deployment", 24}, {"Sign-off", 16},
	}
	adhocColumns = []pdfColumn{
		{"Name", 80}, {"Status", 30}, {"Due", 28}, {"Created", 28}, {"Updated", 24},
	}
)

// WritePDF writes an A4 report: a summary, a status distribution pie chart
// and tables of both task kinds, with a page footer.
func WritePDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(doc.Options.Compress)
	pdf.SetTitle(doc.title(), true)
	pdf.SetCreator("tpulse", true)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	generated := doc.Report.GeneratedAt.Format("2006-01-02 15:04")
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, tr(doc.title()), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 5, "Generated "+generated, "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(4)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	section(pdf, "Executive Summary")
	pdf.SetFont("Helvetica", "", 10)
	for _, s := range doc.summary() {
		pdf.CellFormat(60, 6, tr(s.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(s.Value), "", 1, "L", false, 0, "")
	}

	if counts := doc.statusCounts(); len(counts) > 0 {
		pdf.Ln(4)
		section(pdf, "Status Distribution")
		pieChart(pdf, counts)
	}

	if lines := doc.Report.Insights.Recommendations; len(lines) > 0 {
		pdf.Ln(2)
		section(pdf, "Recommendations")
		pdf.SetFont("Helvetica", "", 10)
		for _, line := range lines {
			pdf.MultiCell(0, 5, tr("- "+line), "", "L", false)
		}
	}

	pdf.AddPage()
	section(pdf, "Project Tasks")
	rows := make([][]string, 0, len(doc.projects()))
	for _, t := range doc.projects() {
		rows = append(rows, []string{
			t.Name, t.SquadName, t.SPOC, t.Status.Label(),
			formatDate(t.StartDate), formatDate(t.DeploymentDate), yesNo(t.SecuritySignOff),
		})
	}
	table(pdf, tr, projectColumns, rows)

	pdf.Ln(6)
	section(pdf, "Ad-Hoc Tasks")
	rows = make([][]string, 0, len(doc.adhoc()))
	for _, t := range doc.adhoc() {
		rows = append(rows, []string{
			t.Name, t.Status.Label(), formatDate(t.DueDate), formatDate(t.CreatedAt), formatDate(t.UpdatedAt),
		})
	}
	table(pdf, tr, adhocColumns, rows)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

// pieChart draws one filled sector per status with a legend to its right.
func pieChart(pdf *fpdf.Fpdf, counts []statusCount) {
	const radius = 30.0
	left, top := pdf.GetX(), pdf.GetY()
	cx, cy := left+radius, top+radius

	total := 0
	for _, c := range counts {
		total += c.Count
	}

	start := -math.Pi / 2
	for _, c := range counts {
		sweep := 2 * math.Pi * float64(c.Count) / float64(total)
		col := statusColors[c.Status]
		pdf.SetFillColor(col.r, col.g, col.b)
		pdf.Polygon(sector(cx, cy, radius, start, start+sweep), "F")
		start += sweep
	}

	pdf.SetFont("Helvetica", "", 10)
	legendX := left + 2*radius + 12
	for i, c := range counts {
		y := top + 8 + float64(i)*8
		col := statusColors[c.Status]
		pdf.SetFillColor(col.r, col.g, col.b)
		pdf.Rect(legendX, y, 5, 5, "F")
		pdf.SetXY(legendX+8, y)
		pct := float64(c.Count) / float64(total) * 100
		pdf.CellFormat(0, 5, fmt.Sprintf("%s: %d (%.0f%%)", c.Status.Label(), c.Count, pct), "", 0, "L", false, 0, "")
	}
	pdf.SetXY(left, top+2*radius+6)
}

// sector approximates a circular sector with a polygon, one vertex per
// couple of degrees of arc.
func sector(cx, cy, r, from, to float64) []fpdf.PointType {
	steps := max(2, int(math.Ceil((to-from)/(math.Pi/90))))
	points := make([]fpdf.PointType, 0, steps+2)
	points = append(points, fpdf.PointType{X: cx, Y: cy})
	for i := 0; i <= steps; i++ {
		a := from + (to-from)*float64(i)/float64(steps)
		points = append(points, fpdf.PointType{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	return points
}

func table(pdf *fpdf.Fpdf, tr func(string) string, cols []pdfColumn, rows [][]string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(31, 78, 120)
	pdf.SetTextColor(255, 255, 255)
	for _, c := range cols {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	if len(rows) == 0 {
		pdf.CellFormat(0, 6, "No tasks", "", 1, "L", false, 0, "")
		return
	}
	for i, row := range rows {
		fill := i%2 == 1
		pdf.SetFillColor(242, 242, 242)
		for j, c := range cols {
			pdf.CellFormat(c.width, 6, fit(pdf, tr(row[j]), c.width-2), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fit truncates s with an ellipsis so it renders within width. s is already
// translated to the single-byte core font encoding.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
