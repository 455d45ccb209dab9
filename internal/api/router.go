package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/handlers"

	"github.com/starford/menuboard/internal/assetmeta"
	"github.com/starford/menuboard/internal/authflow"
	"github.com/starford/menuboard/internal/backend"
	"github.com/starford/menuboard/internal/localstore"
	"github.com/starford/menuboard/internal/sse"
)

// Backend is the hosted backend surface the API depends on.
type Backend interface {
	ConfigChecker
	Signer
	authflow.Identity
}

var _ Backend = (*backend.Client)(nil)

// Deps are the collaborators the router wires into its handlers.
type Deps struct {
	Backend Backend
	Assets  assetmeta.Store
	KV      localstore.KV
	Blobs   localstore.Blobs

	// Broker receives board change events and serves GET /events. Optional.
	Broker *sse.Broker
	// Limiter throttles the asset and auth routes. Optional.
	Limiter *RateLimiter

	// UnverifiedJWTFallback accepts the unverified "sub" claim of a token
	// the identity API could not verify. It applies to /assets only.
	UnverifiedJWTFallback bool
	// CORSOrigins enables CORS for the listed origins.
	CORSOrigins []string

	Logger *slog.Logger
}

// NewRouter creates a chi router with all API routes mounted. Mount it under
// /api.
func NewRouter(d Deps) chi.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// The unverified fallback only ever guards the asset routes. Board data
	// is keyed by user id and needs a verified identity.
	assetAuth := NewAuthenticator(d.Backend, d.UnverifiedJWTFallback, logger)
	auth := NewAuthenticator(d.Backend, false, logger)
	h := NewHandler(d.KV, d.Blobs, d.Broker)
	ah := NewAssetHandler(d.Backend, d.Assets)
	uh := NewAuthHandler(d.Backend, logger)

	throttle := func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(d.Limiter.Middleware)
		}
	}

	r := chi.NewRouter()
	if len(d.CORSOrigins) > 0 {
		r.Use(handlers.CORS(
			handlers.AllowedOrigins(d.CORSOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		))
	}

	// Pre-signed URLs. Configuration is checked before the caller.
	r.Route("/assets", func(r chi.Router) {
		throttle(r)
		r.Use(RequireConfig(d.Backend))
		r.Use(assetAuth.Middleware)
		r.Post("/presign", ah.Presign)
		r.Post("/sign-download", ah.SignDownload)
	})

	r.Route("/auth", func(r chi.Router) {
		throttle(r)
		r.Post("/login", uh.Login)
		r.Post("/logout", uh.Logout)
		r.Post("/signup/otp", uh.SendSignupOTP)
		r.Post("/signup/verify", uh.VerifySignupOTP)
		r.Post("/signup/complete", uh.CompleteSignup)
		r.Post("/recovery", uh.SendPasswordReset)
		r.Post("/recovery/begin", uh.BeginRecovery)
		r.Post("/recovery/reset", uh.ResetPassword)
	})

	// Rendering is pure and needs no user.
	r.Post("/templates/{templateID}/render", h.RenderTemplate)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/layout", h.GetLayout)
		r.Put("/layout", h.PutLayout)

		r.Get("/presets", h.ListPresets)
		r.Post("/presets", h.CreatePreset)
		r.Delete("/presets/{id}", h.DeletePreset)

		r.Get("/blobs/{key}", h.GetBlob)
		r.Put("/blobs/{key}", h.PutBlob)
		r.Delete("/blobs/{key}", h.DeleteBlob)

		r.Delete("/store", h.ResetStore)

		if d.Broker != nil {
			r.Get("/events", d.Broker.ServeHTTP)
		}
	})

	return r
}
