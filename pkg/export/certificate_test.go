package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCertificateRendererRender(t *testing.T) {
	renderer := NewCertificateRenderer()
	data := CertificateData{
		SerialNumber:  "EMMA-2026-0001",
		RecipientName: "Jane Doe",
		CourseTitle:   "Workplace Safety Basics",
		IssuerName:    "EMMA Human Resources",
		IssuedAt:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	pdfBytes, err := renderer.Render(data)
	require.NoError(t, err)
	require.NotEmpty(t, pdfBytes)
	require.Equal(t, "%PDF", string(pdfBytes[:4]))
}

func TestCertificateRendererRequiresRecipient(t *testing.T) {
	renderer := NewCertificateRenderer()
	_, err := renderer.Render(CertificateData{CourseTitle: "Course"})
	require.Error(t, err)

	_, err = renderer.Render(CertificateData{RecipientName: "Jane"})
	require.Error(t, err)
}

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"email", "subscribed_at"},
		Rows: []map[string]string{
			{"email": "a@example.com", "subscribed_at": "2026-01-01"},
		},
	})
	require.NoError(t, err)
	require.Contains(t, string(out), "a@example.com")

	_, err = exporter.Render(Dataset{})
	require.Error(t, err)
}
