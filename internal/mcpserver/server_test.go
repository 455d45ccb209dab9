package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/menuboard/internal/apperr"
	"github.com/starford/menuboard/internal/backend"
	"github.com/starford/menuboard/internal/canvas"
	"github.com/starford/menuboard/internal/dataurl"
	"github.com/starford/menuboard/internal/localstore"
	"github.com/starford/menuboard/internal/session"
	"github.com/starford/menuboard/internal/testutil"
)

var (
	pngData  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
	webmData = []byte("\x1a\x45\xdf\xa3\x9f\x42\x86\x81\x01")
)

func testServer(t *testing.T) (*Server, *localstore.DB, *localstore.BlobDir) {
	t.Helper()
	db, blobs := testutil.TestStores(t)
	return New(db, blobs), db, blobs
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper, so handlers are invoked
	// directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "render_template":
		result, err = srv.renderTemplate(ctx, req)
	case "format_price":
		result, err = srv.formatPrice(ctx, req)
	case "list_templates":
		result, err = srv.listTemplates(ctx, req)
	case "list_presets":
		result, err = srv.listPresets(ctx, req)
	case "upload_asset":
		result, err = srv.uploadAsset(ctx, req)
	case "get_template_contract":
		result, err = srv.getTemplateContract(ctx, req)
	case "sign_in":
		result, err = srv.signIn(ctx, req)
	case "sign_out":
		result, err = srv.signOut(ctx, req)
	case "whoami":
		result, err = srv.whoami(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestRenderTemplate(t *testing.T) {
	srv, _, _ := testServer(t)

	r := callTool(t, srv, "render_template", map[string]interface{}{
		"template_id":     "t1",
		"data":            `{"rows":[{"name":"Tea","price":"4.5"}]}`,
		"lang":            "en",
		"container_width": 540.0,
	})
	if r.IsError {
		t.Fatalf("render failed: %s", resultText(r))
	}
	text := resultText(r)
	var view struct {
		TemplateID string  `json:"templateId"`
		Scale      float64 `json:"scale"`
		PageCount  int     `json:"pageCount"`
	}
	if err := json.Unmarshal([]byte(text), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.TemplateID != "T1A" || view.Scale != 0.5 || view.PageCount != 1 {
		t.Errorf("view = %+v", view)
	}
	if !strings.Contains(text, `"$4.50"`) {
		t.Errorf("formatted price missing from %s", text)
	}
}

func TestRenderTemplateNullData(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "render_template", map[string]interface{}{
		"template_id": "T2B",
		"data":        "null",
	})
	if r.IsError || resultText(r) != "null" {
		t.Errorf("result = %q (error %v)", resultText(r), r.IsError)
	}
}

func TestRenderTemplateErrors(t *testing.T) {
	srv, _, _ := testServer(t)
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"unknown family", map[string]interface{}{"template_id": "T9", "data": "{}"}},
		{"bad variant", map[string]interface{}{"template_id": "T1Z", "data": "{}"}},
		{"bad json", map[string]interface{}{"template_id": "T1", "data": "{"}},
		{"missing data", map[string]interface{}{"template_id": "T1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r := callTool(t, srv, "render_template", tt.args); !r.IsError {
				t.Errorf("expected error, got %q", resultText(r))
			}
		})
	}
}

func TestFormatPrice(t *testing.T) {
	srv, _, _ := testServer(t)
	tests := []struct {
		args map[string]interface{}
		want string
	}{
		{map[string]interface{}{"price": "4.5"}, "$4.50"},
		{map[string]interface{}{"price": "4.5", "force_two_decimals": false}, "$4.5"},
		{map[string]interface{}{"price": "4500", "currency": "₩", "force_two_decimals": false}, "₩4500"},
		{map[string]interface{}{"price": "market"}, "$market"},
		{map[string]interface{}{"price": "  "}, ""},
	}
	for _, tt := range tests {
		if got := resultText(callTool(t, srv, "format_price", tt.args)); got != tt.want {
			t.Errorf("format_price(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestListTemplates(t *testing.T) {
	srv, _, _ := testServer(t)
	var out []templateInfo
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "list_templates", map[string]interface{}{"lang": "en"}))), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 9 {
		t.Fatalf("templates = %d, want 9", len(out))
	}
	if out[0].ID != "T1A" || out[0].Name != "List · A" {
		t.Errorf("first = %+v", out[0])
	}
	if out[8].ID != "T3C" {
		t.Errorf("last = %+v", out[8])
	}
}

func TestListPresets(t *testing.T) {
	srv, db, blobs := testServer(t)

	if got := resultText(callTool(t, srv, "list_presets", map[string]interface{}{"user_id": "u-1"})); got != "[]" {
		t.Errorf("empty presets = %q", got)
	}

	if _, err := canvas.NewPresetStore(localstore.NewScoped(db, blobs, "u-1")).Add("Lunch", nil); err != nil {
		t.Fatal(err)
	}
	var presets []canvas.Preset
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "list_presets", map[string]interface{}{"user_id": "u-1"}))), &presets); err != nil {
		t.Fatal(err)
	}
	if len(presets) != 1 || presets[0].Name != "Lunch" {
		t.Errorf("presets = %+v", presets)
	}

	// Presets are per user.
	if got := resultText(callTool(t, srv, "list_presets", map[string]interface{}{"user_id": "u-2"})); got != "[]" {
		t.Errorf("other user presets = %q", got)
	}
}

func TestUploadAsset(t *testing.T) {
	srv, db, blobs := testServer(t)

	r := callTool(t, srv, "upload_asset", map[string]interface{}{
		"user_id": "u-1",
		"key":     localstore.KeyMenuBackground,
		"url":     dataurl.EncodeBytes(pngData, "image/png"),
	})
	if r.IsError {
		t.Fatalf("upload failed: %s", resultText(r))
	}
	var res uploadResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.ContentType != "image/png" || res.Size != len(pngData) {
		t.Errorf("result = %+v", res)
	}

	got, err := localstore.NewScoped(db, blobs, "u-1").LoadBlob(localstore.KeyMenuBackground)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, pngData) {
		t.Errorf("stored blob differs")
	}

	r = callTool(t, srv, "upload_asset", map[string]interface{}{
		"user_id": "u-1",
		"key":     localstore.KeyIntroVideo,
		"url":     dataurl.EncodeBytes(webmData, "video/webm"),
	})
	if r.IsError {
		t.Fatalf("video upload failed: %s", resultText(r))
	}
}

func TestUploadAssetRejects(t *testing.T) {
	srv, _, _ := testServer(t)
	tests := []struct {
		name    string
		args    map[string]interface{}
		wantErr string
	}{
		{"image as video", map[string]interface{}{
			"user_id": "u-1", "key": localstore.KeyIntroVideo, "url": dataurl.EncodeBytes(pngData, "image/png"),
		}, "expects video/"},
		{"unknown key", map[string]interface{}{
			"user_id": "u-1", "key": "MENU_CUSTOM_PRESETS_V1", "url": dataurl.EncodeBytes(pngData, "image/png"),
		}, "unknown blob key"},
		{"loopback", map[string]interface{}{
			"user_id": "u-1", "key": localstore.KeyMenuBackground, "url": "http://127.0.0.1/bg.png",
		}, "blocked host"},
		{"metadata", map[string]interface{}{
			"user_id": "u-1", "key": localstore.KeyMenuBackground, "url": "http://169.254.169.254/latest",
		}, "cloud metadata"},
		{"scheme", map[string]interface{}{
			"user_id": "u-1", "key": localstore.KeyMenuBackground, "url": "ftp://example.com/bg.png",
		}, "unsupported scheme"},
		{"blank user", map[string]interface{}{
			"user_id": " ", "key": localstore.KeyMenuBackground, "url": dataurl.EncodeBytes(pngData, "image/png"),
		}, "user_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := callTool(t, srv, "upload_asset", tt.args)
			if !r.IsError {
				t.Fatalf("expected error, got %q", resultText(r))
			}
			if !strings.Contains(resultText(r), tt.wantErr) {
				t.Errorf("error = %q, want %q", resultText(r), tt.wantErr)
			}
		})
	}
}

func TestTemplateContract(t *testing.T) {
	srv, _, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_template_contract", map[string]interface{}{}))
	for _, want := range []string{"T1", "T2", "T3", "forceTwoDecimals", "photos"} {
		if !strings.Contains(text, want) {
			t.Errorf("contract missing %q", want)
		}
	}
}

// fakeIdentity accepts password "secret" for any address and names the user
// after the part before "@".
type fakeIdentity struct {
	signedOut []string
}

func (f *fakeIdentity) User(context.Context, string) (*backend.User, error) { return nil, nil }

func (f *fakeIdentity) SignInWithPassword(_ context.Context, email, password string) (*backend.Session, error) {
	if password != "secret" {
		return nil, &apperr.UpstreamError{Op: "sign in", Status: 400, Text: "Bad Request", Body: `{"error_description":"Invalid login credentials"}`}
	}
	uid, _, _ := strings.Cut(email, "@")
	return &backend.Session{AccessToken: "at-" + uid, User: &backend.User{ID: uid, Email: email}}, nil
}

func (f *fakeIdentity) SignInWithOTP(context.Context, string, bool) error { return nil }

func (f *fakeIdentity) VerifyOTP(context.Context, string, string) (*backend.Session, error) {
	return nil, nil
}

func (f *fakeIdentity) UpdatePassword(context.Context, string, string) (*backend.User, error) {
	return nil, nil
}

func (f *fakeIdentity) ResetPasswordForEmail(context.Context, string, string) error { return nil }

func (f *fakeIdentity) SignOut(_ context.Context, token string) error {
	f.signedOut = append(f.signedOut, token)
	return nil
}

func TestSignedInUserIsDefaultOwner(t *testing.T) {
	db, blobs := testutil.TestStores(t)
	holder := session.NewHolder()
	id := &fakeIdentity{}
	srv := New(db, blobs, WithAuth(id, holder))

	if r := callTool(t, srv, "list_presets", map[string]interface{}{}); !r.IsError || !strings.Contains(resultText(r), "nobody is signed in") {
		t.Fatalf("anonymous list_presets = %q", resultText(r))
	}

	if r := callTool(t, srv, "sign_in", map[string]interface{}{"email": "u-1@example.com", "password": "wrong"}); !r.IsError || resultText(r) != "Invalid login credentials" {
		t.Errorf("bad password = %q", resultText(r))
	}
	r := callTool(t, srv, "sign_in", map[string]interface{}{"email": "u-1@example.com", "password": "secret"})
	if r.IsError || !strings.Contains(resultText(r), `"userId": "u-1"`) {
		t.Fatalf("sign_in = %q", resultText(r))
	}
	if holder.Get() != "u-1" {
		t.Errorf("holder = %q", holder.Get())
	}
	if got := resultText(callTool(t, srv, "whoami", nil)); got != "u-1" {
		t.Errorf("whoami = %q", got)
	}

	if _, err := canvas.NewPresetStore(localstore.NewScoped(db, blobs, "u-1")).Add("Lunch", nil); err != nil {
		t.Fatal(err)
	}
	var presets []canvas.Preset
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "list_presets", map[string]interface{}{}))), &presets); err != nil {
		t.Fatal(err)
	}
	if len(presets) != 1 || presets[0].Name != "Lunch" {
		t.Errorf("presets = %+v", presets)
	}

	// An explicit user_id still wins.
	if got := resultText(callTool(t, srv, "list_presets", map[string]interface{}{"user_id": "u-2"})); got != "[]" {
		t.Errorf("explicit user presets = %q", got)
	}

	r = callTool(t, srv, "upload_asset", map[string]interface{}{
		"key": localstore.KeyMenuBackground,
		"url": dataurl.EncodeBytes(pngData, "image/png"),
	})
	if r.IsError {
		t.Fatalf("upload_asset = %q", resultText(r))
	}
	if got, err := localstore.NewScoped(db, blobs, "u-1").LoadBlob(localstore.KeyMenuBackground); err != nil || !bytes.Equal(got, pngData) {
		t.Errorf("blob = %v %v", got, err)
	}

	callTool(t, srv, "sign_out", nil)
	if holder.Get() != "" || len(id.signedOut) != 1 || id.signedOut[0] != "at-u-1" {
		t.Errorf("after sign_out: holder=%q revoked=%v", holder.Get(), id.signedOut)
	}
	if r := callTool(t, srv, "whoami", nil); !r.IsError {
		t.Errorf("whoami after sign_out = %q", resultText(r))
	}
}
