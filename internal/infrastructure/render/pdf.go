// Package render turns badge fields into a printable PDF card.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/airport-ops/badge-system/internal/core/ports"
)

// ID-1 card size in millimetres.
const (
	cardWidth  = 85.6
	cardHeight = 54.0
	margin     = 4.0
)

// PDFRenderer draws badges as single-page ID-1 sized PDFs.
type PDFRenderer struct {
	issuer string
	now    func() time.Time
}

// NewPDFRenderer returns a renderer that prints issuer in the card header.
func NewPDFRenderer(issuer string) *PDFRenderer {
	return &PDFRenderer{issuer: issuer, now: time.Now}
}

// ContentType implements ports.BadgeRenderer.
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Render implements ports.BadgeRenderer.
func (r *PDFRenderer) Render(ctx context.Context, in ports.RenderInput) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.BadgeNumber) == "" {
		return nil, errors.New("render: badge number is empty")
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: cardWidth, Ht: cardHeight},
	})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(r.now().UTC())
	pdf.SetTitle("Badge "+in.BadgeNumber, true)
	pdf.SetCreator(r.issuer, true)
	pdf.AddPage()

	// core fonts are cp1252; names with accents need translating
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	inner := cardWidth - 2*margin

	pdf.SetFillColor(18, 52, 99)
	pdf.Rect(0, 0, cardWidth, 11, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetXY(margin, 2.5)
	pdf.CellFormat(inner, 6, tr(r.issuer), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(margin, 2.5)
	pdf.CellFormat(inner, 6, "STAFF BADGE", "", 0, "R", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(margin, 14)
	pdf.CellFormat(inner, 7, tr(in.OwnerName), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetX(margin)
	pdf.CellFormat(inner, 4, "Zones", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetX(margin)
	pdf.MultiCell(inner, 4, tr(strings.Join(in.Zones, ", ")), "", "L", false)

	validity := "Permanent"
	if in.ValidUntil != nil {
		validity = "Valid until " + in.ValidUntil.UTC().Format("2006-01-02")
	}
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(margin, cardHeight-margin-9)
	pdf.CellFormat(inner, 4, validity, "", 1, "L", false, 0, "")

	pdf.SetFont("Courier", "B", 10)
	pdf.SetX(margin)
	pdf.CellFormat(inner, 5, tr(in.BadgeNumber), "T", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
