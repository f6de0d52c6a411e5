package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"ctam-data/internal/domain"
)

func (s *reportService) ExportSummaryXLSX(ctx context.Context, actor *domain.Profile, req ReportRequest) ([]byte, error) {
	var (
		sum *Summary
		err error
	)
	switch req.Level {
	case LevelRegion, "":
		sum, err = s.RegionSummary(ctx, actor, req)
	case LevelProvince:
		sum, err = s.ProvinceSummary(ctx, actor, req)
	case LevelHospital:
		sum, err = s.HospitalSummary(ctx, actor, req)
	default:
		return nil, fmt.Errorf("%w: level must be one of [region province hospital]", ErrValidation)
	}
	if err != nil {
		return nil, err
	}
	b, err := GenerateSummaryXLSX(sum)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Summary exported",
		zap.String("profile_id", actor.ID),
		zap.String("level", sum.Level),
		zap.Int("rows", len(sum.Rows)),
	)
	return b, nil
}

// GenerateSummaryXLSX one sheet, header row plus one row per summary row.
func GenerateSummaryXLSX(sum *Summary) ([]byte, error) {
	statuses := domain.AllStatuses()
	headers := []string{"Code", "Name"}
	if sum.Level == LevelHospital {
		headers = append(headers, "Type", "Latest Status", "Latest Total")
	}
	headers = append(headers, "Assessments", "Average Total")
	for _, st := range statuses {
		headers = append(headers, string(st))
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("%s %d", sum.Level, sum.FiscalYear+543)
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}
	if err := f.SetColWidth(sheet, "B", "B", 40); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	for i, r := range sum.Rows {
		values := []any{r.Code, r.Name}
		if sum.Level == LevelHospital {
			values = append(values, r.Kind, string(r.Status), r.TotalScore)
		}
		values = append(values, r.Assessments, r.AverageTotal)
		for _, st := range statuses {
			values = append(values, r.StatusCounts[st])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
