package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// TagSlip carries the fields printed on a bag tag slip.
type TagSlip struct {
	TagCode        string
	StudentName    string
	StudentID      string
	BagDescription string
	CheckinTime    time.Time
	QRPayload      string
}

// SlipRenderer renders printable tag slips for checked-in bags.
type SlipRenderer struct {
	libraryName string
}

// NewSlipRenderer constructs a SlipRenderer.
func NewSlipRenderer(libraryName string) *SlipRenderer {
	if libraryName == "" {
		libraryName = "UniLibrary"
	}
	return &SlipRenderer{libraryName: libraryName}
}

// Render produces an A6 PDF slip the librarian attaches to the bag.
func (r *SlipRenderer) Render(slip TagSlip) ([]byte, error) {
	if slip.TagCode == "" {
		return nil, fmt.Errorf("tag slip requires a tag code")
	}

	pdf := gofpdf.New("P", "mm", "A6", "")
	pdf.SetMargins(8, 10, 8)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, r.libraryName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, "Bag Check-In Slip", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 28)
	pdf.CellFormat(0, 16, slip.TagCode, "1", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{"Student", slip.StudentName},
		{"Student ID", slip.StudentID},
		{"Bag", slip.BagDescription},
		{"Checked in", slip.CheckinTime.Local().Format("02 Jan 2006 15:04")},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(26, 6, row[0], "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 6, row[1], "", "", false)
	}

	if slip.QRPayload != "" {
		pdf.Ln(3)
		pdf.SetFont("Courier", "", 6)
		pdf.MultiCell(0, 3, slip.QRPayload, "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render tag slip: %w", err)
	}
	return buf.Bytes(), nil
}
