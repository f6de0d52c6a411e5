package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"ctam-data/internal/domain"
	"ctam-data/internal/scoring"
	"ctam-data/internal/workflow"
)

func (s *reportService) Certificate(ctx context.Context, actor *domain.Profile, assessmentID string) ([]byte, error) {
	a, err := s.assessments.Get(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	act, err := s.refs.actor(ctx, actor)
	if err != nil {
		return nil, err
	}
	t, err := s.refs.target(ctx, a)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(act, workflow.ActionExportCertificate, t); err != nil {
		return nil, err
	}
	refs, err := s.refs.get(ctx)
	if err != nil {
		return nil, err
	}

	facility := a.FacilityID()
	if h, ok := refs.Hospitals[a.HospitalID]; ok {
		facility = h.Name
	} else if o, ok := refs.HealthOffices[a.HealthOfficeID]; ok {
		facility = o.Name
	}

	b, err := renderCertificate(a, facility)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Certificate exported",
		zap.String("assessment_id", a.ID),
		zap.String("profile_id", actor.ID),
		zap.Int("bytes", len(b)),
	)
	return b, nil
}

// renderCertificate uses the core PDF fonts, which cover Latin text only.
func renderCertificate(a *domain.Assessment, facility string) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("CTAM Certificate", true)
	pdf.AddPage()
	pdf.SetMargins(20, 20, 20)

	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetY(35)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.CellFormat(0, 14, "Certificate of Cybersecurity Self-Assessment", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "CTAM hospital cybersecurity assessment", "", 1, "C", false, 0, "")

	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, pdf.UnicodeTranslatorFromDescriptor("")(facility), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(0, 8, fmt.Sprintf("completed the assessment for fiscal year B.E. %d, period %s", a.BuddhistYear(), a.Period), "", 1, "C", false, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	lines := []struct {
		label string
		score float64
		max   int
	}{
		{"Quantitative", a.QuantitativeScore, scoring.MaxQuantitative},
		{"Qualitative", a.QualitativeScore, scoring.MaxQualitative},
		{"Impact", a.ImpactScore, scoring.MaxImpact},
	}
	for _, l := range lines {
		pdf.CellFormat(0, 7, fmt.Sprintf("%s: %.2f / %d", l.label, l.score, l.max), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("Total score: %.2f / 100", a.TotalScore), "", 1, "C", false, 0, "")

	issued := a.RegionalApproval.At
	if issued.IsZero() {
		issued = a.UpdatedAt
	}
	if !issued.IsZero() {
		pdf.SetY(175)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Issued %02d/%02d/%d (B.E.)", issued.Day(), int(issued.Month()), issued.Year()+543), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
