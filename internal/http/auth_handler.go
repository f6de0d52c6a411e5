package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"ctam-data/internal/service"
)

// AuthHandler login, token refresh and profile self-service.
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, "Login", err)
		return
	}
	req.IPAddress = getClientIP(r)

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "Login", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body refreshBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, "Refresh", err)
		return
	}
	resp, err := h.authService.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		writeError(w, h.logger, "Refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var body refreshBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, "Logout", err)
		return
	}
	if err := h.authService.Logout(r.Context(), body.RefreshToken); err != nil {
		writeError(w, h.logger, "Logout", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(profileFrom(r.Context())))
}

func (h *AuthHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateContactRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, "UpdateContact", err)
		return
	}
	req.ProfileID = profileFrom(r.Context()).ID
	p, err := h.authService.UpdateContact(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "UpdateContact", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req service.ChangePasswordRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, "ChangePassword", err)
		return
	}
	req.ProfileID = profileFrom(r.Context()).ID
	if err := h.authService.ChangePassword(r.Context(), req); err != nil {
		writeError(w, h.logger, "ChangePassword", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
