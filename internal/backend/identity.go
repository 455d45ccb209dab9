package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/starford/menuboard/internal/apperr"
)

// User is the identity record returned by the identity API.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated identity session.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// UserID returns the session user's id, or "".
func (s *Session) UserID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.ID
}

func asUpstream(err error, target **apperr.UpstreamError) bool {
	return errors.As(err, target)
}

// User resolves the identity behind an access token. The response is accepted
// both flat and wrapped in a "user" object.
func (c *Client) User(ctx context.Context, token string) (*User, error) {
	var body struct {
		User
		Wrapped *User `json:"user"`
	}
	err := c.do(ctx, call{
		op:     "failed to verify token",
		method: http.MethodGet,
		path:   "/auth/v1/user",
		apiKey: c.cfg.AnonKey,
		bearer: token,
	}, &body)
	if err != nil {
		return nil, err
	}
	if body.Wrapped != nil && body.Wrapped.ID != "" {
		return body.Wrapped, nil
	}
	if body.ID == "" {
		return nil, nil
	}
	return &body.User, nil
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	err := c.do(ctx, call{
		op:     "sign in",
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		apiKey: c.cfg.AnonKey,
		body:   map[string]string{"email": email, "password": password},
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SignInWithOTP asks the identity API to mail a one-time code. With
// createUser false the call fails for unknown addresses.
func (c *Client) SignInWithOTP(ctx context.Context, email string, createUser bool) error {
	return c.do(ctx, call{
		op:     "send otp",
		method: http.MethodPost,
		path:   "/auth/v1/otp",
		apiKey: c.cfg.AnonKey,
		body: map[string]any{
			"email":       email,
			"create_user": createUser,
		},
	}, nil)
}

// VerifyOTP checks an emailed code and returns the resulting session.
func (c *Client) VerifyOTP(ctx context.Context, email, token string) (*Session, error) {
	var s Session
	err := c.do(ctx, call{
		op:     "verify otp",
		method: http.MethodPost,
		path:   "/auth/v1/verify",
		apiKey: c.cfg.AnonKey,
		body:   map[string]string{"type": "email", "email": email, "token": token},
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdatePassword sets a new password for the user behind accessToken.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) (*User, error) {
	var u User
	err := c.do(ctx, call{
		op:     "update user",
		method: http.MethodPut,
		path:   "/auth/v1/user",
		apiKey: c.cfg.AnonKey,
		bearer: accessToken,
		body:   map[string]string{"password": password},
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ResetPasswordForEmail mails a recovery link that lands on redirectTo.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.do(ctx, call{
		op:     "recover",
		method: http.MethodPost,
		path:   "/auth/v1/recover",
		query:  q,
		apiKey: c.cfg.AnonKey,
		body:   map[string]string{"email": email},
	}, nil)
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, call{
		op:     "sign out",
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		apiKey: c.cfg.AnonKey,
		bearer: accessToken,
	}, nil)
}
