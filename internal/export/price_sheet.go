// Package export renders price sheets into downloadable documents.
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/GTDGit/gtd_visa/internal/models"
)

const (
	sheetName  = "Price List"
	dateLayout = "02 Jan 2006"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// column is one printable price sheet column. amount is set for money
// columns so spreadsheets keep them numeric.
type column struct {
	header string
	width  float64
	text   func(r models.PriceSheetRow) string
	amount func(r models.PriceSheetRow) *int64
}

func columns(s *models.PriceSheet) []column {
	cols := []column{
		{header: "Visa Name", width: 60, text: func(r models.PriceSheetRow) string { return r.Name }},
		{header: "Country", width: 30, text: func(r models.PriceSheetRow) string { return r.Country }},
		{header: "Type", width: 22, text: func(r models.PriceSheetRow) string { return r.Type }},
	}
	if s.ShowRetail {
		cols = append(cols, moneyColumn("Retail (FIT)", func(r models.PriceSheetRow) *int64 { return &r.RetailPrice }))
	}
	if s.ShowAgentStandard {
		cols = append(cols, moneyColumn("Agent Standard", func(r models.PriceSheetRow) *int64 { return r.AgentStandardPrice }))
	}
	if s.HasAgent() {
		col := moneyColumn("Special Price ("+s.AgentName+")", func(r models.PriceSheetRow) *int64 { return r.SpecialPrice })
		base := col.text
		col.text = func(r models.PriceSheetRow) string {
			if r.SpecialNote != nil && *r.SpecialNote != "" && r.SpecialPrice != nil {
				return base(r) + " - " + *r.SpecialNote
			}
			return base(r)
		}
		col.width = 45
		cols = append(cols, col)
	}
	if s.ShowPromo {
		cols = append(cols, column{header: "Active Promo", width: 35, text: func(r models.PriceSheetRow) string {
			if len(r.Promos) == 0 {
				return "-"
			}
			return strings.Join(r.Promos, ", ")
		}})
	}
	return cols
}

func moneyColumn(header string, amount func(r models.PriceSheetRow) *int64) column {
	c := column{header: header, width: 32, amount: amount}
	c.text = func(r models.PriceSheetRow) string {
		v := amount(r)
		if v == nil {
			return "-"
		}
		return FormatPrice(*v, r.Currency)
	}
	return c
}

// FormatPrice renders an amount the way the dashboard prints it, for example
// "Rp 1.250.000". Amounts are whole currency units.
func FormatPrice(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	prefix := strings.ToUpper(currency)
	if prefix == "" || prefix == "IDR" {
		prefix = "Rp"
	}
	return sign + prefix + " " + b.String()
}

func subtitle(s *models.PriceSheet) []string {
	lines := []string{"Generated on " + s.GeneratedAt.Format(dateLayout)}
	if s.HasAgent() {
		lines = append(lines, "Special Pricing for: "+s.AgentName)
	}
	return lines
}

// XLSX renders the sheet as an Excel workbook.
func XLSX(s *models.PriceSheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F9F9F9"}},
		Border: []excelize.Border{{Type: "bottom", Color: "DDDDDD", Style: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	f.SetCellValue(sheetName, "A1", s.Title)
	f.SetCellStyle(sheetName, "A1", "A1", bold)
	row := 2
	for _, line := range subtitle(s) {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), line)
		row++
	}
	row++

	cols := columns(s)
	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheetName, cell, c.header)
		name, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, name, name, c.width/2)
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(cols), row)
	f.SetCellStyle(sheetName, first, last, header)

	for _, r := range s.Rows {
		row++
		for i, c := range cols {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if c.amount == nil {
				f.SetCellValue(sheetName, cell, c.text(r))
				continue
			}
			v := c.amount(r)
			if v == nil {
				f.SetCellValue(sheetName, cell, "-")
				continue
			}
			f.SetCellValue(sheetName, cell, *v)
			f.SetCellStyle(sheetName, cell, cell, money)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

// PDF renders the sheet as a printable A4 document. Wide sheets switch to
// landscape.
func PDF(s *models.PriceSheet) ([]byte, error) {
	cols := columns(s)
	orientation := "P"
	if len(cols) > 5 {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, tr(s.Title))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	for _, line := range subtitle(s) {
		pdf.Cell(40, 6, tr(line))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	widths := fitWidths(cols, pageW-left-right)

	printHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(249, 249, 249)
		pdf.SetDrawColor(221, 221, 221)
		for i, c := range cols {
			pdf.CellFormat(widths[i], 8, tr(c.header), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	printHeader()

	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if len(s.Rows) == 0 {
		pdf.CellFormat(sum(widths), 8, "No visas to print", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	for _, r := range s.Rows {
		if pdf.GetY()+7 > pageH-bottom {
			pdf.AddPage()
			printHeader()
		}
		for i, c := range cols {
			align := "L"
			if c.amount != nil {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, tr(truncate(pdf, c.text(r), widths[i]-2)), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWidths scales the preferred column widths to the printable width.
func fitWidths(cols []column, total float64) []float64 {
	pref := make([]float64, len(cols))
	for i, c := range cols {
		pref[i] = c.width
	}
	scale := total / sum(pref)
	for i := range pref {
		pref[i] *= scale
	}
	return pref
}

func sum(v []float64) float64 {
	var t float64
	for _, x := range v {
		t += x
	}
	return t
}

func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
