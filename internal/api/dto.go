package api

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/menuboard/internal/apperr"
	"github.com/starford/menuboard/internal/canvas"
	"github.com/starford/menuboard/internal/menutemplate"
)

// PresignRequest is the body of POST /api/assets/presign.
type PresignRequest struct {
	Filename    string `json:"filename" example:"logo.png" validate:"required"`
	ContentType string `json:"contentType" example:"image/png"`
	SizeBytes   int64  `json:"sizeBytes" example:"2048"`
}

// Validate implements validation.Validatable.
func (r PresignRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Filename, validation.Required),
	)
}

// PresignResponse carries the upload grant and the stored metadata row.
type PresignResponse struct {
	UploadURL string          `json:"uploadUrl"`
	Token     string          `json:"token"`
	Path      string          `json:"path"`
	Metadata  json.RawMessage `json:"metadata"`
}

// SignDownloadRequest is the body of POST /api/assets/sign-download.
type SignDownloadRequest struct {
	AssetKey string `json:"assetKey" example:"menuLayoutJson" validate:"required"`
}

// Validate implements validation.Validatable.
func (r SignDownloadRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AssetKey, validation.Required),
	)
}

// SignDownloadResponse carries the download grant.
type SignDownloadResponse struct {
	SignedURL string `json:"signedUrl"`
	Path      string `json:"path"`
}

// LayoutRequest replaces the saved free-form layout.
type LayoutRequest struct {
	Items []canvas.Element `json:"items" validate:"required"`
}

// Validate checks that every element has a unique id and a known type.
func (r LayoutRequest) Validate() error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.NotNil),
	); err != nil {
		return err
	}
	seen := make(map[string]bool, len(r.Items))
	for i, e := range r.Items {
		if err := validation.ValidateStruct(&e,
			validation.Field(&e.ID, validation.Required),
			validation.Field(&e.Type, validation.Required, validation.In(canvas.TypeText, canvas.TypeImage)),
		); err != nil {
			return fmt.Errorf("%w: items[%d]: %v", apperr.ErrInvalidInput, i, err)
		}
		if seen[e.ID] {
			return fmt.Errorf("%w: duplicate element id %q", apperr.ErrInvalidInput, e.ID)
		}
		seen[e.ID] = true
	}
	return nil
}

// LayoutResponse is the saved free-form layout.
type LayoutResponse struct {
	Items []canvas.Element `json:"items"`
}

// CreatePresetRequest saves a layout snapshot under a name.
type CreatePresetRequest struct {
	Name  string           `json:"name" example:"Lunch board" validate:"required"`
	Items []canvas.Element `json:"items"`
}

// Validate implements validation.Validatable.
func (r CreatePresetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

// PresetListResponse wraps the saved presets.
type PresetListResponse struct {
	Presets []canvas.Preset `json:"presets"`
}

// RenderRequest is the body of POST /api/templates/{templateID}/render.
// Data is the loosely typed template document as stored by the UI.
type RenderRequest struct {
	Data    json.RawMessage            `json:"data"`
	Lang    string                     `json:"lang" example:"ko"`
	Options menutemplate.RenderOptions `json:"options"`
}

// BlobResponse describes a stored blob.
type BlobResponse struct {
	Key  string `json:"key"`
	Size int    `json:"size"`
	ETag string `json:"etag"`
}

// Auth request bodies. Field checks happen in the auth flow so the messages
// stay localised.
type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	EmailRequest struct {
		Email string `json:"email"`
	}
	VerifyOTPRequest struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	CompleteSignupRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Confirm  string `json:"confirm"`
	}
	RecoveryRequest struct {
		Email      string `json:"email"`
		RedirectTo string `json:"redirectTo"`
	}
	BeginRecoveryRequest struct {
		Fragment     string `json:"fragment"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	ResetPasswordRequest struct {
		Password string `json:"password"`
	}
)
