package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"ctam-data/internal/domain"
	"ctam-data/internal/service"
	"ctam-data/internal/workflow"
)

// AssessmentHandler assessment CRUD, workflow transitions and the
// qualitative form.
type AssessmentHandler struct {
	assessments service.AssessmentService
	qualitative service.QualitativeService
	reports     service.ReportService
	logger      *zap.Logger
}

func NewAssessmentHandler(assessments service.AssessmentService, qualitative service.QualitativeService, reports service.ReportService, logger *zap.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessments: assessments,
		qualitative: qualitative,
		reports:     reports,
		logger:      logger,
	}
}

func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListAssessmentsRequest{
		FiscalYear: parseInt(q.Get("fiscal_year"), 0),
		Period:     strings.TrimSpace(q.Get("period")),
	}
	if s := q.Get("status"); s != "" {
		st, err := domain.ParseStatus(s)
		if err != nil {
			writeError(w, h.logger, "ListAssessments", fmt.Errorf("%w: %v", service.ErrValidation, err))
			return
		}
		req.Status = st
	}
	items, err := h.assessments.List(r.Context(), profileFrom(r.Context()), req)
	if err != nil {
		writeError(w, h.logger, "ListAssessments", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": items, "total": len(items)}))
}

func (h *AssessmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateAssessmentRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, "CreateAssessment", err)
		return
	}
	a, err := h.assessments.Create(r.Context(), profileFrom(r.Context()), req)
	if err != nil {
		writeError(w, h.logger, "CreateAssessment", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(a))
}

func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.assessments.Get(r.Context(), profileFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "GetAssessment", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

func (h *AssessmentHandler) UpdateScores(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateScoresRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, "UpdateScores", err)
		return
	}
	req.AssessmentID = r.PathValue("id")
	a, err := h.assessments.UpdateScores(r.Context(), profileFrom(r.Context()), req)
	if err != nil {
		writeError(w, h.logger, "UpdateScores", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

func (h *AssessmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	a, err := h.assessments.Submit(r.Context(), profileFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "SubmitAssessment", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

func (h *AssessmentHandler) ApproveSection(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "ApproveSection", h.assessments.ApproveSection)
}

func (h *AssessmentHandler) ReturnSection(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "ReturnSection", h.assessments.ReturnSection)
}

type reviewFunc = func(ctx context.Context, actor *domain.Profile, req service.ReviewRequest) (*domain.Assessment, error)

func (h *AssessmentHandler) review(w http.ResponseWriter, r *http.Request, op string, fn reviewFunc) {
	section, err := domain.ParseSection(r.PathValue("section"))
	if err != nil {
		writeError(w, h.logger, op, fmt.Errorf("%w: %v", workflow.ErrInvalidSection, err))
		return
	}
	var req service.ReviewRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, op, err)
		return
	}
	req.AssessmentID = r.PathValue("id")
	req.Section = section
	a, err := fn(r.Context(), profileFrom(r.Context()), req)
	if err != nil {
		writeError(w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

func (h *AssessmentHandler) History(w http.ResponseWriter, r *http.Request) {
	items, err := h.assessments.History(r.Context(), profileFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "AssessmentHistory", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// Actions drives which buttons the UI shows.
func (h *AssessmentHandler) Actions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.assessments.Actions(r.Context(), profileFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "AssessmentActions", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(actions))
}

func (h *AssessmentHandler) GetQualitative(w http.ResponseWriter, r *http.Request) {
	q, err := h.qualitative.Get(r.Context(), profileFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "GetQualitative", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(q))
}

func (h *AssessmentHandler) SaveQualitative(w http.ResponseWriter, r *http.Request) {
	var req service.SaveQualitativeRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, "SaveQualitative", err)
		return
	}
	req.AssessmentID = r.PathValue("id")
	q, err := h.qualitative.Save(r.Context(), profileFrom(r.Context()), req)
	if err != nil {
		writeError(w, h.logger, "SaveQualitative", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(q))
}

func (h *AssessmentHandler) Certificate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b, err := h.reports.Certificate(r.Context(), profileFrom(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, "Certificate", err)
		return
	}
	writeFile(w, "application/pdf", "ctam-certificate-"+id+".pdf", b)
}
