package pdfform

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Render produces the PDF bytes for the document's current state.
// Unflattened documents draw field borders so signers can see the fillable
// areas; flattened output bakes values and signature images into the page
// with no interactive chrome.
func (d *Document) Render() ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, d.Title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	for i, clause := range d.Clauses {
		pdf.MultiCell(0, 5, fmt.Sprintf("%d. %s", i+1, clause), "", "L", false)
		pdf.Ln(2)
	}
	pdf.Ln(4)

	for _, field := range d.fields {
		switch field.Kind {
		case FieldText:
			d.renderTextField(pdf, field)
		case FieldSignature:
			d.renderSignatureField(pdf, field)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render nda pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *Document) renderTextField(pdf *gofpdf.Fpdf, field *Field) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 7, field.Label+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	border := "B"
	if d.flattened {
		border = ""
	}
	pdf.CellFormat(100, 7, field.Value, border, 1, "L", false, 0, "")
	pdf.Ln(2)
}

func (d *Document) renderSignatureField(pdf *gofpdf.Fpdf, field *Field) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, field.Label+":", "", 1, "L", false, 0, "")

	x, y := pdf.GetX(), pdf.GetY()
	const boxW, boxH = 70.0, 25.0

	if !d.flattened {
		pdf.Rect(x, y, boxW, boxH, "D")
	}

	if len(field.Image) > 0 {
		opts := gofpdf.ImageOptions{ImageType: field.ImageType}
		pdf.RegisterImageOptionsReader(field.Name, opts, bytes.NewReader(field.Image))
		pdf.ImageOptions(field.Name, x+2, y+2, boxW-4, boxH-4, false, opts, 0, "")
	}

	pdf.SetY(y + boxH + 4)
}
