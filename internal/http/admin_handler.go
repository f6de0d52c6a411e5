package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"ctam-data/internal/service"
)

type AdminHandler struct {
	provisioning service.ProvisioningService
	logger       *zap.Logger
}

func NewAdminHandler(provisioning service.ProvisioningService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{provisioning: provisioning, logger: logger}
}

// ProvisionHealthOffices the caller id comes from the verified token only.
func (h *AdminHandler) ProvisionHealthOffices(w http.ResponseWriter, r *http.Request) {
	var req service.ProvisionRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, "ProvisionHealthOffices", err)
		return
	}
	req.CallerID = profileFrom(r.Context()).ID
	res, err := h.provisioning.ProvisionHealthOffices(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "ProvisionHealthOffices", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}
