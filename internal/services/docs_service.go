package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"teleferico/internal/domain"
	"teleferico/internal/domain/models"
	"teleferico/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders the passenger manifest of a cabin as PDF.
type DocsService struct {
	RequestID string
	Loader    func(domain.ID) (models.CabinState, error)
	Now       func() time.Time
}

func (s DocsService) GenerateManifest(cabinID domain.ID) ([]byte, string, error) {
	if s.Loader == nil {
		return nil, "", fmt.Errorf("manifest loader not configured")
	}
	state, err := s.Loader(cabinID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_manifest", fmt.Sprintf("cabin_id=%d passengers=%d", cabinID, state.PassengerCount()))
	return buildManifestPDF(state, s.now())
}

func (s DocsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func buildManifestPDF(st models.CabinState, printedAt time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Cabin Manifest", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, fmt.Sprintf("MANIFEST CABIN #%d", st.ID))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Station   : %s", strings.ToUpper(st.Station.String())),
		fmt.Sprintf("Status    : %s", motionLabel(st.InMotion)),
		fmt.Sprintf("Occupancy : %d / %d", st.PassengerCount(), st.Capacity),
		fmt.Sprintf("Printed   : %s", printedAt.Format("2006-01-02 15:04")),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(15, 8, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Rider ID", "1", 0, "C", false, 0, "")
	pdf.CellFormat(110, 8, "Name", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Age", "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for i, p := range st.Passengers {
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", p.ID), "1", 0, "C", false, 0, "")
		pdf.CellFormat(110, 7, safe(p.Name, "-"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", p.Age), "1", 1, "C", false, 0, "")
	}
	if len(st.Passengers) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 7, "No passengers on board.")
		pdf.Ln(7)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("MANIFEST_CABIN_%d_%s.pdf", st.ID, printedAt.Format("20060102_1504"))
	return buf.Bytes(), filename, nil
}

func motionLabel(moving bool) string {
	if moving {
		return "MOVING"
	}
	return "STOPPED"
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
