package site

import (
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/kmplibs/internal/catalog"
)

var pdfColumns = []struct {
	title string
	width float64
}{
	{"Name", 50},
	{"Category", 45},
	{"Subcategory", 40},
	{"Platforms", 105},
	{"Stars", 25},
}

// WritePDF renders libs as a landscape A4 table. Descriptions are left out;
// long cells are truncated to the column width.
func WritePDF(title string, libs []catalog.Library, outPath string) error {
	if title == "" {
		title = DefaultTitle
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, 12)

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(235, 235, 235)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	header()

	for _, l := range libs {
		stars := "N/A"
		if l.Stars != nil {
			stars = strconv.Itoa(*l.Stars)
		}
		cells := []string{l.Name, l.Category, l.SubCategory, strings.Join(l.Platforms, ", "), stars}
		for i, c := range pdfColumns {
			text := fitText(pdf, tr(cells[i]), c.width-2)
			align := "L"
			if i == len(pdfColumns)-1 {
				align = "R"
			}
			if i == 0 && strings.HasPrefix(l.URL, "http") {
				pdf.CellFormat(c.width, 6, text, "1", 0, align, false, 0, l.URL)
				continue
			}
			pdf.CellFormat(c.width, 6, text, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf.OutputFileAndClose(outPath)
}

// fitText trims s until it fits within width, appending "..." when cut. s is
// already translated to the single-byte font encoding, so cutting bytes is safe.
func fitText(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
