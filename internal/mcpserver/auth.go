package mcpserver

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/menuboard/internal/authflow"
	"github.com/starford/menuboard/internal/session"
)

// Option configures a Server.
type Option func(*Server)

// WithAuth registers the sign_in, sign_out and whoami tools. The signed-in
// user is kept in holder and becomes the default owner for tools called
// without user_id.
func WithAuth(id authflow.Identity, holder *session.Holder) Option {
	return func(s *Server) {
		if holder != nil {
			s.holder = holder
		}
		s.flow = authflow.New(id, s.holder, authflow.WithLang("en"))
	}
}

var errNoUser = errors.New("user_id is required when nobody is signed in")

// userID returns the user_id argument, or the signed-in user when it is blank.
func (s *Server) userID(req mcp.CallToolRequest) (string, error) {
	if id := strings.TrimSpace(req.GetString("user_id", "")); id != "" {
		return id, nil
	}
	if id := s.holder.Get(); id != "" {
		return id, nil
	}
	return "", errNoUser
}

func (s *Server) registerAuthTools() {
	s.mcp.AddTool(mcp.NewTool("sign_in",
		mcp.WithDescription("Sign in with e-mail and password. Later tools default to the signed-in user."),
		mcp.WithString("email", mcp.Required(), mcp.Description("Account e-mail")),
		mcp.WithString("password", mcp.Required(), mcp.Description("Account password")),
	), s.signIn)

	s.mcp.AddTool(mcp.NewTool("sign_out",
		mcp.WithDescription("Sign out and forget the current user."),
	), s.signOut)

	s.mcp.AddTool(mcp.NewTool("whoami",
		mcp.WithDescription("Report the signed-in user id."),
	), s.whoami)
}

type signInResult struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

func (s *Server) signIn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	email, err := req.RequireString("email")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	password, err := req.RequireString("password")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.flow.Login(ctx, email, password)
	if !res.OK {
		return mcp.NewToolResultError(res.Message), nil
	}
	return jsonResult(signInResult{UserID: res.UserID, Message: res.Message})
}

func (s *Server) signOut(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.flow.SignOut(ctx)
	return mcp.NewToolResultText("signed out"), nil
}

func (s *Server) whoami(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := s.holder.Get()
	if id == "" {
		return mcp.NewToolResultError("nobody is signed in"), nil
	}
	return mcp.NewToolResultText(id), nil
}
