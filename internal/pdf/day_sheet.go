package pdf

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"clinicdesk/internal/models"
	"clinicdesk/internal/scheduler"
)

// DaySheetGenerator prints one day's slot grid on A4.
type DaySheetGenerator struct {
	ClinicName string
	FontPath   string // optional TTF; without it the core Helvetica font is used
	fontName   string
}

func NewDaySheetGenerator(clinicName, fontPath string) *DaySheetGenerator {
	g := &DaySheetGenerator{ClinicName: clinicName, FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	return g
}

// Render writes the PDF for board, which must be a grid.
func (g *DaySheetGenerator) Render(w io.Writer, board scheduler.Board, printedAt time.Time) error {
	if board.View != scheduler.ViewGrid {
		return fmt.Errorf("day sheet needs the grid view, got %q", board.View)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s %s", g.ClinicName, board.Date), true)
	pdf.SetAuthor(g.ClinicName, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	tr := func(s string) string { return s }
	if g.FontPath != "" {
		pdf.AddUTF8Font(g.fontName, "", g.FontPath)
		pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
	} else {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddPage()

	day := board.Date
	if t, err := time.Parse(models.DateLayout, board.Date); err == nil {
		day = t.Format("Monday, 02/01/2006")
	}

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, tr(g.ClinicName), "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 12)
	pdf.CellFormat(0, 7, tr(day), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, tr(board.Summary), "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	g.header(pdf, tr)
	for _, row := range board.Slots {
		g.slotRow(pdf, tr, row)
	}

	pdf.Ln(4)
	pdf.SetFont(g.fontName, "", 9)
	pdf.CellFormat(0, 6, tr("Printed "+printedAt.Format("02/01/2006 15:04")), "", 1, "R", false, 0, "")

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	return pdf.Output(w)
}

var columns = []struct {
	title string
	width float64
}{
	{"Time", 18},
	{"No.", 16},
	{"Client", 46},
	{"Reason", 46},
	{"Doctor", 30},
	{"Cost", 14},
}

func (g *DaySheetGenerator) header(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.SetFont(g.fontName, "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range columns {
		pdf.CellFormat(c.width, 8, tr(c.title), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func (g *DaySheetGenerator) slotRow(pdf *gofpdf.Fpdf, tr func(string) string, row scheduler.SlotRow) {
	pdf.SetFont(g.fontName, "", 10)
	cells := []string{row.Time, "", "available", "", "", ""}
	if a := row.Appointment; a != nil {
		cells = []string{row.Time, a.Number, a.ClientName, a.Reason, a.Doctor, fmt.Sprintf("%d", a.Cost)}
	}
	for i, c := range columns {
		pdf.CellFormat(c.width, 8, tr(g.fit(pdf, cells[i], c.width-2)), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

// fit truncates s so it fits in width mm at the current font.
func (g *DaySheetGenerator) fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func (g *DaySheetGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}
