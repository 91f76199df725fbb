package report

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"github.com/physioflow/practice-api/internal/model"
)

var reportTypeLabels = map[model.ReportType]string{
	model.ReportTypePhysio:               "Physiotherapy Assessment",
	model.ReportTypeStrengthConditioning: "Strength & Conditioning Assessment",
}

// RenderPDF produces a printable rendition of a report. Access rules are
// the same as GetReport.
func (s *Service) RenderPDF(ctx context.Context, requesterID uuid.UUID, isAdmin bool, id uuid.UUID) ([]byte, error) {
	report, err := s.GetReport(ctx, requesterID, isAdmin, id)
	if err != nil {
		return nil, err
	}

	patient, err := s.patients.Get(ctx, report.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	therapist, err := s.therapists.Get(ctx, report.TherapistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get therapist: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(report.Title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, reportTypeLabels[report.Type], "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.Ln(4)
	pdf.CellFormat(0, 7, fmt.Sprintf("Title: %s", report.Title), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Patient: %s", patient.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Therapist: %s", therapist.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Status: %s", report.Status), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Created: %s", report.CreatedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetDrawColor(180, 180, 180)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(4)

	// Form fields render in stable order.
	keys := make([]string, 0, len(report.Content))
	for k := range report.Content {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, key, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, fmt.Sprintf("%v", report.Content[key]), "", "L", false)
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
