package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/menuboard/internal/apperr"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL + "/", AnonKey: "anon", ServiceRoleKey: "service"})
}

func TestCheck(t *testing.T) {
	err := New(Config{URL: "http://x"}).Check()
	if !errors.Is(err, apperr.ErrMissingConfig) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "SUPABASE_SERVICE_ROLE_KEY, SUPABASE_ANON_KEY") {
		t.Errorf("message = %q", err.Error())
	}
	if err := New(Config{URL: "u", AnonKey: "a", ServiceRoleKey: "s"}).Check(); err != nil {
		t.Errorf("complete config: %v", err)
	}
}

func TestUser(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "anon" || r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("headers = %v", r.Header)
		}
		io.WriteString(w, `{"id":"u-1","email":"a@b.c"}`)
	})
	u, err := c.User(context.Background(), "tok")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "u-1" || u.Email != "a@b.c" {
		t.Errorf("user = %+v", u)
	}
}

func TestUserWrapped(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"user":{"id":"u-2"}}`)
	})
	u, err := c.User(context.Background(), "tok")
	if err != nil || u == nil || u.ID != "u-2" {
		t.Fatalf("user = %+v, err = %v", u, err)
	}
}

func TestUserRejected(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"msg":"invalid JWT"}`)
	})
	_, err := c.User(context.Background(), "tok")
	var up *apperr.UpstreamError
	if !errors.As(err, &up) || up.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
	if got := Message(err); got != "invalid JWT" {
		t.Errorf("Message = %q", got)
	}
}

func TestSignUpload(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/storage/v1/object/upload/sign/assets" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer service" {
			t.Errorf("auth = %q", r.Header.Get("Authorization"))
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["objectName"] != "u-1/1-a.png" || body["expiresIn"] != float64(300) || body["contentType"] != "image/png" {
			t.Errorf("body = %v", body)
		}
		io.WriteString(w, `{"url":"/object/upload/sign/assets/u-1/1-a.png?token=t1","token":"t1","path":"u-1/1-a.png"}`)
	})
	got, err := c.SignUpload(context.Background(), "u-1/1-a.png", "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(got.SignedURL, "/storage/v1/object/upload/sign/assets/u-1/1-a.png?token=t1") {
		t.Errorf("SignedURL = %q", got.SignedURL)
	}
	if got.Token != "t1" || got.Path != "u-1/1-a.png" {
		t.Errorf("grant = %+v", got)
	}
}

func TestSignDownloadEscapesPath(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/storage/v1/object/sign/assets/u-1%2Flogo.png" {
			t.Errorf("path = %s", r.URL.EscapedPath())
		}
		io.WriteString(w, `{"signedUrl":"https://cdn/x"}`)
	})
	got, err := c.SignDownload(context.Background(), "u-1/logo.png")
	if err != nil {
		t.Fatal(err)
	}
	if got.SignedURL != "https://cdn/x" || got.Path != "" {
		t.Errorf("grant = %+v", got)
	}
}

func TestSignUploadFailure(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, "bucket not found")
	})
	_, err := c.SignUpload(context.Background(), "p", "")
	if err == nil || err.Error() != "failed to sign upload URL: 400 Bad Request bucket not found" {
		t.Errorf("err = %v", err)
	}
}

func TestInsert(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/assets" || r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("request = %s %v", r.URL.Path, r.Header)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `[{"id":7,"path":"p"}]`)
	})
	raw, err := c.Insert(context.Background(), "assets", map[string]string{"path": "p"})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"id":7,"path":"p"}` {
		t.Errorf("raw = %s", raw)
	}
}

func TestSignInWithPassword(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		io.WriteString(w, `{"access_token":"at","refresh_token":"rt","user":{"id":"u-9"}}`)
	})
	s, err := c.SignInWithPassword(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if s.AccessToken != "at" || s.UserID() != "u-9" {
		t.Errorf("session = %+v", s)
	}
}

func TestSignInWithOTPBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["create_user"] != false {
			t.Errorf("create_user = %v", body["create_user"])
		}
		w.WriteHeader(http.StatusOK)
	})
	if err := c.SignInWithOTP(context.Background(), "a@b.c", false); err != nil {
		t.Fatal(err)
	}
}

func TestMissingURL(t *testing.T) {
	_, err := New(Config{}).User(context.Background(), "tok")
	if !errors.Is(err, apperr.ErrMissingConfig) {
		t.Errorf("err = %v", err)
	}
}

func TestMessageFallbacks(t *testing.T) {
	if Message(nil) != "" {
		t.Error("nil error should be empty")
	}
	plain := errors.New("boom")
	if Message(plain) != "boom" {
		t.Error("plain error")
	}
	up := &apperr.UpstreamError{Op: "x", Status: 500, Text: "Internal Server Error", Body: "not json"}
	if Message(up) != "not json" {
		t.Errorf("Message = %q", Message(up))
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{URL: url, AnonKey: "anon", ServiceRoleKey: "service"})
	_, err := c.SignUpload(context.Background(), "p", "")
	var berr *apperr.BackendError
	if !errors.As(err, &berr) {
		t.Fatalf("err = %T %v", err, err)
	}
	if !strings.Contains(err.Error(), "connect") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestDecodeFailure(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>gateway</html>")
	})
	_, err := c.SignDownload(context.Background(), "p")
	var berr *apperr.BackendError
	if !errors.As(err, &berr) || !strings.Contains(err.Error(), "decode response") {
		t.Errorf("err = %v", err)
	}
}

func TestCallHonorsContext(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.User(ctx, "tok")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}
