package httpapi

import (
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"ctam-data/internal/service"
)

type ReportHandler struct {
	reports service.ReportService
	logger  *zap.Logger
}

func NewReportHandler(reports service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

func reportRequest(q url.Values) service.ReportRequest {
	return service.ReportRequest{
		FiscalYear: parseInt(q.Get("fiscal_year"), 0),
		Period:     q.Get("period"),
		ReportType: q.Get("report_type"),
		Level:      q.Get("level"),
		RegionID:   q.Get("region_id"),
		ProvinceID: q.Get("province_id"),
	}
}

func (h *ReportHandler) Regions(w http.ResponseWriter, r *http.Request) {
	sum, err := h.reports.RegionSummary(r.Context(), profileFrom(r.Context()), reportRequest(r.URL.Query()))
	if err != nil {
		writeError(w, h.logger, "RegionSummary", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sum))
}

func (h *ReportHandler) Provinces(w http.ResponseWriter, r *http.Request) {
	sum, err := h.reports.ProvinceSummary(r.Context(), profileFrom(r.Context()), reportRequest(r.URL.Query()))
	if err != nil {
		writeError(w, h.logger, "ProvinceSummary", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sum))
}

func (h *ReportHandler) Hospitals(w http.ResponseWriter, r *http.Request) {
	sum, err := h.reports.HospitalSummary(r.Context(), profileFrom(r.Context()), reportRequest(r.URL.Query()))
	if err != nil {
		writeError(w, h.logger, "HospitalSummary", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sum))
}

func (h *ReportHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	req := reportRequest(r.URL.Query())
	b, err := h.reports.ExportSummaryXLSX(r.Context(), profileFrom(r.Context()), req)
	if err != nil {
		writeError(w, h.logger, "ExportSummary", err)
		return
	}
	level := req.Level
	if level == "" {
		level = service.LevelRegion
	}
	writeFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		fmt.Sprintf("ctam-%s-%d.xlsx", level, req.FiscalYear+543), b)
}
