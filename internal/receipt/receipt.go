// Package receipt renders the post-payment impact receipt as a PDF.
package receipt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/kijani-trails/conservation-booking/internal/model"
)

const (
	marginMM = 15.0
	pageWMM  = 210.0
)

// Render returns a one-page A4 receipt: the booking, the party, the money
// split between the partner and the platform, and a QR code of the booking
// id for check-in.
func Render(r model.Receipt) ([]byte, error) {
	if r.BookingID == "" {
		return nil, fmt.Errorf("receipt: missing booking id")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking receipt "+r.BookingID, false)
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 12, "Booking receipt")
	pdf.Ln(14)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Reference: "+r.BookingID)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Issued: "+r.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))
	pdf.Ln(10)

	png, err := qrcode.Encode(r.BookingID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("receipt: qr: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "png"}
	pdf.RegisterImageOptionsReader("ref-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("ref-qr", pageWMM-marginMM-35, marginMM, 35, 0, false, opts, 0, "")

	section(pdf, "Experience")
	title := r.ExperienceTitle
	if title == "" {
		title = r.ExperienceSlug
	}
	line(pdf, "Experience", title)
	line(pdf, "Date", r.Date)
	line(pdf, "Party", party(r.Adults, r.Children))
	if r.OptionID != "" && r.OptionID != model.OptionStandard {
		line(pdf, "Option", string(r.OptionID))
	}
	line(pdf, "Guest", strings.TrimSpace(r.CustomerName+" <"+r.CustomerEmail+">"))
	pdf.Ln(4)

	section(pdf, "Payment")
	line(pdf, "Experience price", Money(r.Subtotal, r.Currency))
	if r.Donation > 0 {
		line(pdf, "Conservation donation", Money(r.Donation, r.Currency))
	}
	pdf.SetFont("Helvetica", "B", 12)
	line(pdf, "Total", Money(r.Total, r.Currency))
	pdf.Ln(4)

	section(pdf, "Where your money goes")
	line(pdf, "Conservation partner", Money(r.PartnerAmount, r.Currency))
	line(pdf, "Platform", Money(r.PlatformAmount, r.Currency))
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 5, "Partners receive 90% of the experience price and every shilling of your donation.", "", "", false)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(marginMM, 282, pageWMM-marginMM, 282)
	pdf.SetY(284)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Show the QR code at the conservancy gate on the day of your visit.", "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("receipt: render: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetFillColor(235, 242, 235)
	pdf.CellFormat(0, 8, title, "", 1, "L", true, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 11)
}

func line(pdf *gofpdf.Fpdf, label, value string) {
	pdf.CellFormat(60, 7, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

func party(adults, children int) string {
	s := fmt.Sprintf("%d adult", adults)
	if adults != 1 {
		s += "s"
	}
	switch children {
	case 0:
	case 1:
		s += ", 1 child"
	default:
		s += fmt.Sprintf(", %d children", children)
	}
	return s
}

// Money formats minor units as "KES 7,500.00".
func Money(minor int64, currency string) string {
	s := decimal.New(minor, -2).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, ch := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	if currency == "" {
		return out
	}
	return currency + " " + out
}
