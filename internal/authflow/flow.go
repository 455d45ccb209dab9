// Package authflow drives sign-in, e-mail OTP sign-up and password recovery
// against the identity API.
//
// Every operation returns a Result carrying a localised message; failures
// never escape as errors. Messages the identity API sends back are shown as
// is; transport failures map to a generic message for the step.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/starford/menuboard/internal/apperr"
	"github.com/starford/menuboard/internal/backend"
	"github.com/starford/menuboard/internal/session"
)

// OTPLength is the number of digits in an e-mailed sign-up code.
const OTPLength = 8

var otpPattern = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, OTPLength))

// Identity is the subset of the identity API the flow uses.
type Identity interface {
	User(ctx context.Context, token string) (*backend.User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error)
	SignInWithOTP(ctx context.Context, email string, createUser bool) error
	VerifyOTP(ctx context.Context, email, token string) (*backend.Session, error)
	UpdatePassword(ctx context.Context, accessToken, password string) (*backend.User, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	SignOut(ctx context.Context, accessToken string) error
}

var _ Identity = (*backend.Client)(nil)

// Result is the outcome of one step.
type Result struct {
	OK      bool             `json:"ok"`
	Message string           `json:"message"`
	UserID  string           `json:"userId,omitempty"`
	Email   string           `json:"email,omitempty"`
	Session *backend.Session `json:"session,omitempty"`
}

// OTPState tracks the e-mail verification step of sign-up.
type OTPState struct {
	Sent     bool `json:"sent"`
	Verified bool `json:"verified"`
}

// Flow holds the state of one client's authentication steps. It is safe for
// concurrent use, but steps are expected to run one at a time.
type Flow struct {
	id     Identity
	holder *session.Holder
	lang   string
	log    *slog.Logger

	mu       sync.Mutex
	otp      OTPState
	sess     *backend.Session
	recovery bool
}

// Option configures a Flow.
type Option func(*Flow)

// WithLang selects the message language ("ko" or "en").
func WithLang(lang string) Option {
	return func(f *Flow) { f.lang = lang }
}

// WithLogger sets the logger for unexpected failures.
func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) { f.log = l }
}

// WithVerifiedSession resumes a sign-up whose e-mail was already verified,
// such as an API request carrying the verified access token.
func WithVerifiedSession(accessToken string) Option {
	return func(f *Flow) {
		f.sess = &backend.Session{AccessToken: accessToken}
		f.otp = OTPState{Sent: true, Verified: true}
	}
}

// WithRecoverySession resumes a password recovery opened from an e-mail link.
func WithRecoverySession(accessToken string) Option {
	return func(f *Flow) {
		f.sess = &backend.Session{AccessToken: accessToken}
		f.recovery = true
	}
}

// New returns a flow over id that records the signed-in user in holder.
func New(id Identity, holder *session.Holder, opts ...Option) *Flow {
	if holder == nil {
		holder = session.NewHolder()
	}
	f := &Flow{id: id, holder: holder, lang: "ko", log: slog.Default()}
	for _, o := range opts {
		o(f)
	}
	return f
}

// OTP returns the current verification state.
func (f *Flow) OTP() OTPState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.otp
}

// Session returns the session established by the last successful step.
func (f *Flow) Session() *backend.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess
}

// HasRecoverySession reports whether a recovery link was accepted.
func (f *Flow) HasRecoverySession() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recovery
}

func (f *Flow) fail(k msgKey) Result {
	return Result{Message: text(f.lang, k)}
}

// upstream turns err into a Result: identity API responses keep their own
// message, anything else is logged and replaced by fallback.
func (f *Flow) upstream(step string, err error, fallback msgKey) Result {
	var up *apperr.UpstreamError
	if errors.As(err, &up) {
		return Result{Message: backend.Message(err)}
	}
	f.log.Error("auth step failed", slog.String("step", step), slog.String("error", err.Error()))
	return f.fail(fallback)
}

// Login signs in with e-mail and password.
func (f *Flow) Login(ctx context.Context, email, password string) Result {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return f.fail(msgFillAll)
	}
	s, err := f.id.SignInWithPassword(ctx, email, password)
	if err != nil {
		return f.upstream("login", err, msgLoginFailed)
	}

	f.mu.Lock()
	f.sess = s
	f.mu.Unlock()
	if uid := s.UserID(); uid != "" {
		f.holder.Set(uid)
	}
	return Result{OK: true, Message: text(f.lang, msgLoggedIn), UserID: s.UserID(), Session: s}
}

// SendSignupOTP mails a sign-up code. Addresses that already belong to a user
// are refused: a first request asks for a code without creating a user and only a
// "not found" answer lets the real request through.
func (f *Flow) SendSignupOTP(ctx context.Context, email string) Result {
	email = strings.TrimSpace(email)
	if email == "" {
		return f.fail(msgEmailRequired)
	}

	f.mu.Lock()
	f.otp = OTPState{}
	f.mu.Unlock()

	err := f.id.SignInWithOTP(ctx, email, false)
	if err == nil {
		return f.fail(msgAlreadyRegistered)
	}
	var up *apperr.UpstreamError
	if !errors.As(err, &up) {
		return f.upstream("otp existence check", err, msgOTPSendFailed)
	}
	if !strings.Contains(strings.ToLower(backend.Message(err)), "not found") {
		return Result{Message: backend.Message(err)}
	}

	if err := f.id.SignInWithOTP(ctx, email, true); err != nil {
		return f.upstream("otp send", err, msgOTPSendFailed)
	}

	f.mu.Lock()
	f.otp.Sent = true
	f.mu.Unlock()
	return Result{OK: true, Message: text(f.lang, msgOTPSent), Email: email}
}

// VerifySignupOTP checks an e-mailed code. The code format is validated
// before the identity API is contacted.
func (f *Flow) VerifySignupOTP(ctx context.Context, email, code string) Result {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	switch {
	case email == "":
		return f.fail(msgEmailRequired)
	case code == "":
		return f.fail(msgCodeRequired)
	case !otpPattern.MatchString(code):
		return f.fail(msgCodeFormat)
	}

	s, err := f.id.VerifyOTP(ctx, email, code)
	if err != nil {
		f.mu.Lock()
		f.otp.Verified = false
		f.mu.Unlock()
		return f.upstream("otp verify", err, msgVerifyFailed)
	}

	f.mu.Lock()
	f.otp = OTPState{Sent: true, Verified: true}
	f.sess = s
	f.mu.Unlock()
	if uid := s.UserID(); uid != "" {
		f.holder.Set(uid)
	}
	return Result{OK: true, Message: text(f.lang, msgVerified), UserID: s.UserID(), Email: email, Session: s}
}

// CompleteSignup sets the password on the verified account.
func (f *Flow) CompleteSignup(ctx context.Context, email, password, confirm string) Result {
	if strings.TrimSpace(email) == "" || password == "" || confirm == "" {
		return f.fail(msgFillAll)
	}
	f.mu.Lock()
	verified, s := f.otp.Verified, f.sess
	f.mu.Unlock()
	if !verified || s == nil {
		return f.fail(msgVerifyFirst)
	}
	if password != confirm {
		return f.fail(msgPasswordMismatch)
	}

	u, err := f.id.UpdatePassword(ctx, s.AccessToken, password)
	if err != nil {
		return f.upstream("complete signup", err, msgSignupFailed)
	}
	res := Result{OK: true, Message: text(f.lang, msgSignupDone)}
	if u != nil && u.ID != "" {
		f.holder.Set(u.ID)
		res.UserID = u.ID
	}
	return res
}

// SendPasswordReset mails a recovery link that lands on redirectTo.
func (f *Flow) SendPasswordReset(ctx context.Context, email, redirectTo string) Result {
	email = strings.TrimSpace(email)
	if email == "" {
		return f.fail(msgEmailRequired)
	}
	err := f.id.ResetPasswordForEmail(ctx, email, redirectTo)
	if err == nil {
		return Result{OK: true, Message: text(f.lang, msgResetSent), Email: email}
	}
	var up *apperr.UpstreamError
	if errors.As(err, &up) && strings.Contains(strings.ToLower(backend.Message(err)), "not found") {
		return f.fail(msgNotRegistered)
	}
	return f.upstream("password reset", err, msgResetSendFailed)
}

// ParseRecoveryFragment extracts the tokens from the URL fragment a recovery
// e-mail link lands on. ok is false unless the fragment is a recovery link
// carrying both tokens.
func ParseRecoveryFragment(fragment string) (accessToken, refreshToken string, ok bool) {
	q, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil || q.Get("type") != "recovery" {
		return "", "", false
	}
	accessToken, refreshToken = q.Get("access_token"), q.Get("refresh_token")
	return accessToken, refreshToken, accessToken != "" && refreshToken != ""
}

// BeginRecovery accepts the tokens from a recovery link and opens a recovery
// session for ResetPassword.
func (f *Flow) BeginRecovery(ctx context.Context, accessToken, refreshToken string) Result {
	if accessToken == "" || refreshToken == "" {
		return f.fail(msgRecoveryLinkInvalid)
	}
	u, err := f.id.User(ctx, accessToken)
	if err != nil {
		return f.upstream("begin recovery", err, msgRecoveryLinkInvalid)
	}
	if u == nil || u.ID == "" {
		return f.fail(msgRecoveryLinkInvalid)
	}

	s := &backend.Session{AccessToken: accessToken, RefreshToken: refreshToken, User: u}
	f.mu.Lock()
	f.sess = s
	f.recovery = true
	f.mu.Unlock()
	f.holder.Set(u.ID)
	return Result{OK: true, Message: text(f.lang, msgSetNewPassword), UserID: u.ID, Email: u.Email}
}

// ResetPassword sets a new password inside a recovery session.
func (f *Flow) ResetPassword(ctx context.Context, newPassword string) Result {
	f.mu.Lock()
	recovery, s := f.recovery, f.sess
	f.mu.Unlock()
	if !recovery || s == nil {
		return f.fail(msgRecoveryRequired)
	}
	if newPassword == "" {
		return f.fail(msgNewPasswordRequired)
	}
	if _, err := f.id.UpdatePassword(ctx, s.AccessToken, newPassword); err != nil {
		return f.upstream("reset password", err, msgPasswordChangeFailed)
	}
	return Result{OK: true, Message: text(f.lang, msgPasswordChanged)}
}

// SignOut ends the session and forgets the current user. Failures to revoke
// the token are ignored.
func (f *Flow) SignOut(ctx context.Context) {
	f.mu.Lock()
	s := f.sess
	f.sess = nil
	f.otp = OTPState{}
	f.recovery = false
	f.mu.Unlock()

	if s != nil && s.AccessToken != "" {
		_ = f.id.SignOut(ctx, s.AccessToken)
	}
	f.holder.Clear()
}
