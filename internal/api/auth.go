package api

import (
	"log/slog"
	"net/http"

	"github.com/starford/menuboard/internal/authflow"
)

// AuthHandler exposes the sign-in, sign-up and recovery steps. Each request
// runs one step of a fresh flow; steps that continue an earlier one carry its
// access token as the bearer.
type AuthHandler struct {
	id  authflow.Identity
	log *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(id authflow.Identity, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{id: id, log: logger}
}

func (h *AuthHandler) flow(r *http.Request, opts ...authflow.Option) *authflow.Flow {
	base := []authflow.Option{authflow.WithLang(langOf(r)), authflow.WithLogger(h.log)}
	// HTTP callers carry their identity in the bearer token, so the flow
	// keeps no process-wide user.
	return authflow.New(h.id, nil, append(base, opts...)...)
}

func writeResult(w http.ResponseWriter, res authflow.Result) {
	if !res.OK {
		writeJSON(w, http.StatusBadRequest, errorBody(res.Message))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Login handles POST /api/auth/login.
//
//	@Summary		Sign in with e-mail and password
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	authflow.Result
//	@Failure		400		{object}	errResponse
//	@Router			/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "login", err)
		return
	}
	writeResult(w, h.flow(r).Login(r.Context(), req.Email, req.Password))
}

// SendSignupOTP handles POST /api/auth/signup/otp.
func (h *AuthHandler) SendSignupOTP(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "signup otp", err)
		return
	}
	writeResult(w, h.flow(r).SendSignupOTP(r.Context(), req.Email))
}

// VerifySignupOTP handles POST /api/auth/signup/verify. The returned session
// carries the access token that completes the sign-up.
func (h *AuthHandler) VerifySignupOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "signup verify", err)
		return
	}
	writeResult(w, h.flow(r).VerifySignupOTP(r.Context(), req.Email, req.Code))
}

// CompleteSignup handles POST /api/auth/signup/complete.
func (h *AuthHandler) CompleteSignup(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody(msgMissingAuth))
		return
	}
	var req CompleteSignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "signup complete", err)
		return
	}
	f := h.flow(r, authflow.WithVerifiedSession(token))
	writeResult(w, f.CompleteSignup(r.Context(), req.Email, req.Password, req.Confirm))
}

// SendPasswordReset handles POST /api/auth/recovery.
func (h *AuthHandler) SendPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req RecoveryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "recovery", err)
		return
	}
	writeResult(w, h.flow(r).SendPasswordReset(r.Context(), req.Email, req.RedirectTo))
}

// BeginRecovery handles POST /api/auth/recovery/begin. The tokens come either
// from the raw link fragment or as separate fields.
func (h *AuthHandler) BeginRecovery(w http.ResponseWriter, r *http.Request) {
	var req BeginRecoveryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "recovery begin", err)
		return
	}
	access, refresh := req.AccessToken, req.RefreshToken
	if req.Fragment != "" {
		access, refresh, _ = authflow.ParseRecoveryFragment(req.Fragment)
	}
	writeResult(w, h.flow(r).BeginRecovery(r.Context(), access, refresh))
}

// ResetPassword handles POST /api/auth/recovery/reset.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody(msgMissingAuth))
		return
	}
	var req ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "recovery reset", err)
		return
	}
	f := h.flow(r, authflow.WithRecoverySession(token))
	writeResult(w, f.ResetPassword(r.Context(), req.Password))
}

// Logout handles POST /api/auth/logout. Revocation failures are ignored.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody(msgMissingAuth))
		return
	}
	if err := h.id.SignOut(r.Context(), token); err != nil {
		h.log.Warn("sign out failed", slog.String("error", err.Error()))
	}
	w.WriteHeader(http.StatusNoContent)
}
