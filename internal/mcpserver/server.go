// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes menu board tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/menuboard/internal/authflow"
	"github.com/starford/menuboard/internal/canvas"
	"github.com/starford/menuboard/internal/localstore"
	"github.com/starford/menuboard/internal/menutemplate"
	"github.com/starford/menuboard/internal/pagination"
	"github.com/starford/menuboard/internal/session"
)

// Server wraps the MCP server with menu board tools.
type Server struct {
	mcp    *server.MCPServer
	kv     localstore.KV
	blobs  localstore.Blobs
	holder *session.Holder
	flow   *authflow.Flow
}

// New creates a new MCP server with all menu board tools registered.
func New(kv localstore.KV, blobs localstore.Blobs, opts ...Option) *Server {
	s := &Server{kv: kv, blobs: blobs, holder: session.NewHolder()}
	for _, o := range opts {
		o(s)
	}

	s.mcp = server.NewMCPServer(
		"Menuboard",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("render_template",
		mcp.WithDescription("Paginate template data into display pages. "+
			"The data MUST follow the template document format; read it first via "+
			"the get_template_contract tool or the menuboard://template-format resource."),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("Template id such as T1, T2B or T3C")),
		mcp.WithString("data", mcp.Required(), mcp.Description("Template document as a JSON string")),
		mcp.WithString("lang", mcp.Description("Language for defaults: ko (default) or en")),
		mcp.WithNumber("container_width", mcp.Description("Width of the preview container in pixels (default 1080)")),
	), s.renderTemplate)

	s.mcp.AddTool(mcp.NewTool("format_price",
		mcp.WithDescription("Format a free-form price the way menu boards display it."),
		mcp.WithString("price", mcp.Required(), mcp.Description("Price text, e.g. 4.5 or 4,500원")),
		mcp.WithString("currency", mcp.Description("Currency prefix (default $)")),
		mcp.WithBoolean("force_two_decimals", mcp.Description("Fix numeric prices to two decimals (default true)")),
	), s.formatPrice)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List every template id with its display name."),
		mcp.WithString("lang", mcp.Description("Language for names: ko (default) or en")),
	), s.listTemplates)

	s.mcp.AddTool(mcp.NewTool("list_presets",
		mcp.WithDescription("List the saved layout presets of a user."),
		mcp.WithString("user_id", mcp.Description("Owner of the presets (default: signed-in user)")),
	), s.listPresets)

	s.mcp.AddTool(mcp.NewTool("upload_asset",
		mcp.WithDescription("Store a menu background image or intro video for a user. "+
			"Accepts a base64 data URL or an http(s) URL."),
		mcp.WithString("user_id", mcp.Description("Owner of the blob (default: signed-in user)")),
		mcp.WithString("key", mcp.Required(),
			mcp.Enum(localstore.KeyMenuBackground, localstore.KeyIntroVideo),
			mcp.Description("Which blob to replace")),
		mcp.WithString("url", mcp.Required(), mcp.Description("data: URL or http(s) URL of the file")),
	), s.uploadAsset)

	s.mcp.AddTool(mcp.NewTool("get_template_contract",
		mcp.WithDescription("Returns the template document format. "+
			"Call this before rendering to build valid template data."),
	), s.getTemplateContract)

	s.mcp.AddResource(
		mcp.NewResource("menuboard://template-format", "Template Document Format",
			mcp.WithResourceDescription("JSON format of the data each template family renders."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTemplateFormatResource,
	)

	if s.flow != nil {
		s.registerAuthTools()
	}
	return s
}

// ServeStdio serves MCP on stdin/stdout until ctx is done or stdin closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) renderTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := menutemplate.ParseTemplateID(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := menutemplate.Normalize(id, []byte(data), req.GetString("lang", "ko"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view := menutemplate.Render(doc, menutemplate.RenderOptions{
		ContainerWidth: req.GetFloat("container_width", 0),
	})
	if view == nil {
		return mcp.NewToolResultText("null"), nil
	}
	return jsonResult(view)
}

func (s *Server) formatPrice(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	price, err := req.RequireString("price")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	currency := req.GetString("currency", menutemplate.DefaultCurrency)
	return mcp.NewToolResultText(pagination.FormatPrice(price, currency, req.GetBool("force_two_decimals", true))), nil
}

type templateInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) listTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lang := req.GetString("lang", "ko")
	var out []templateInfo
	for _, f := range []menutemplate.Family{menutemplate.FamilyList, menutemplate.FamilyPhotoList, menutemplate.FamilyGrid} {
		for _, v := range []pagination.Variant{pagination.VariantA, pagination.VariantB, pagination.VariantC} {
			id := menutemplate.TemplateID{Family: f, Variant: v}
			out = append(out, templateInfo{ID: id.String(), Name: id.DisplayName(lang)})
		}
	}
	return jsonResult(out)
}

func (s *Server) listPresets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := s.userID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	presets, err := canvas.NewPresetStore(localstore.NewScoped(s.kv, s.blobs, userID)).List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list presets: %v", err)), nil
	}
	if presets == nil {
		presets = []canvas.Preset{}
	}
	return jsonResult(presets)
}

func (s *Server) getTemplateContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TemplateFormatContract), nil
}

func (s *Server) readTemplateFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "menuboard://template-format",
			MIMEType: "text/markdown",
			Text:     TemplateFormatContract,
		},
	}, nil
}
