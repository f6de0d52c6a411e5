package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router stdlib http.ServeMux with method patterns; no third-party router.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	recoverer(r.logger, r.mux).ServeHTTP(w, req)
}

// RegisterAuthRoutes login/session plus self-service profile endpoints.
func (r *Router) RegisterAuthRoutes(h *AuthHandler, m *AuthMiddleware) {
	r.Handle("POST /auth/api/v1/login", h.Login)
	r.Handle("POST /auth/api/v1/refresh", h.Refresh)
	r.Handle("POST /auth/api/v1/logout", h.Logout)
	r.Handle("GET /auth/api/v1/me", m.RequireAuth(h.Me))
	r.Handle("PUT /auth/api/v1/me/contact", m.RequireAuth(h.UpdateContact))
	r.Handle("PUT /auth/api/v1/me/password", m.RequireAuth(h.ChangePassword))
}

func (r *Router) RegisterAssessmentRoutes(h *AssessmentHandler, m *AuthMiddleware) {
	r.Handle("GET /api/v1/assessments", m.RequireAuth(h.List))
	r.Handle("POST /api/v1/assessments", m.RequireAuth(h.Create))
	r.Handle("GET /api/v1/assessments/{id}", m.RequireAuth(h.Get))
	r.Handle("PUT /api/v1/assessments/{id}/scores", m.RequireAuth(h.UpdateScores))
	r.Handle("POST /api/v1/assessments/{id}/submit", m.RequireAuth(h.Submit))
	r.Handle("POST /api/v1/assessments/{id}/sections/{section}/approve", m.RequireAuth(h.ApproveSection))
	r.Handle("POST /api/v1/assessments/{id}/sections/{section}/return", m.RequireAuth(h.ReturnSection))
	r.Handle("GET /api/v1/assessments/{id}/history", m.RequireAuth(h.History))
	r.Handle("GET /api/v1/assessments/{id}/actions", m.RequireAuth(h.Actions))
	r.Handle("GET /api/v1/assessments/{id}/qualitative", m.RequireAuth(h.GetQualitative))
	r.Handle("PUT /api/v1/assessments/{id}/qualitative", m.RequireAuth(h.SaveQualitative))
	r.Handle("GET /api/v1/assessments/{id}/certificate.pdf", m.RequireAuth(h.Certificate))
}

func (r *Router) RegisterReportRoutes(h *ReportHandler, m *AuthMiddleware) {
	r.Handle("GET /api/v1/reports/regions", m.RequireAuth(h.Regions))
	r.Handle("GET /api/v1/reports/provinces", m.RequireAuth(h.Provinces))
	r.Handle("GET /api/v1/reports/hospitals", m.RequireAuth(h.Hospitals))
	r.Handle("GET /api/v1/reports/export.xlsx", m.RequireAuth(h.ExportXLSX))
}

func (r *Router) RegisterAdminRoutes(h *AdminHandler, m *AuthMiddleware) {
	r.Handle("POST /admin/api/v1/provision/health-offices", m.RequireAuth(h.ProvisionHealthOffices))
}

// RegisterHealthRoutes liveness probe.
func (r *Router) RegisterHealthRoutes() {
	r.Handle("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}
