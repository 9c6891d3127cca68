package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData carries the fields printed on an issued certificate.
type CertificateData struct {
	SerialNumber  string
	RecipientName string
	CourseTitle   string
	IssuerName    string
	IssuedAt      time.Time
}

// CertificateRenderer renders course completion certificates as PDF documents.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a certificate renderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render produces the PDF bytes for a completion certificate.
func (r *CertificateRenderer) Render(data CertificateData) ([]byte, error) {
	if strings.TrimSpace(data.RecipientName) == "" {
		return nil, fmt.Errorf("certificate requires a recipient name")
	}
	if strings.TrimSpace(data.CourseTitle) == "" {
		return nil, fmt.Errorf("certificate requires a course title")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetDrawColor(70, 70, 70)
	pdf.SetLineWidth(0.8)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetFont("Times", "B", 30)
	pdf.CellFormat(0, 20, "CERTIFICATE OF COMPLETION", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Times", "", 14)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Times", "B", 24)
	pdf.CellFormat(0, 12, data.RecipientName, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Times", "", 14)
	pdf.CellFormat(0, 8, "has successfully completed the course", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Times", "B", 18)
	pdf.CellFormat(0, 10, data.CourseTitle, "", 1, "C", false, 0, "")
	pdf.Ln(12)

	issued := data.IssuedAt
	if issued.IsZero() {
		issued = time.Now().UTC()
	}
	pdf.SetFont("Times", "", 12)
	pdf.CellFormat(0, 7, fmt.Sprintf("Issued on %s", issued.Format("2 January 2006")), "", 1, "C", false, 0, "")
	if data.IssuerName != "" {
		pdf.CellFormat(0, 7, data.IssuerName, "", 1, "C", false, 0, "")
	}

	if data.SerialNumber != "" {
		pdf.SetY(-30)
		pdf.SetFont("Courier", "", 9)
		pdf.CellFormat(0, 6, fmt.Sprintf("Serial: %s", data.SerialNumber), "", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
