// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the document builder to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/f2023065371-lang/fazal-portfolio/internal/directory"
	"github.com/f2023065371-lang/fazal-portfolio/internal/docservice"
	"github.com/f2023065371-lang/fazal-portfolio/internal/draft"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

const contractURI = "folio://draft-format"

// Server wraps the MCP server with document tools.
type Server struct {
	mcp   *server.MCPServer
	docs  *docservice.Service
	dir   *directory.Directory
	draft draft.Options
}

// New creates a new MCP server with all tools registered.
func New(docs *docservice.Service, dir *directory.Directory, opts draft.Options, version string) *Server {
	s := &Server{docs: docs, dir: dir, draft: opts}

	s.mcp = server.NewMCPServer(
		"Folio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("compute_totals",
		mcp.WithDescription("Compute line amounts, subtotal, tax and total for a YAML draft without rendering it. "+
			"Read the format via get_draft_contract or the "+contractURI+" resource first."),
		mcp.WithString("draft", mcp.Required(), mcp.Description("YAML draft following the folio draft format")),
	), s.computeTotals)

	s.mcp.AddTool(mcp.NewTool("render_document",
		mcp.WithDescription("Render a YAML draft to PDF. With the archive enabled the file is stored there "+
			"and can be listed later; otherwise the PDF is returned inline as a base64 blob resource. "+
			"The issuing contact is taken from the directory entry of username."),
		mcp.WithString("draft", mcp.Required(), mcp.Description("YAML draft following the folio draft format")),
		mcp.WithString("username", mcp.Description("Directory user printed as Issued By (optional)")),
	), s.renderDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List archived documents, newest first."),
		mcp.WithString("kind", mcp.Description("Optional filter: Invoice or Quotation")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Rows to skip")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search over archived documents by recipient, issuer and item descriptions."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("get_draft_contract",
		mcp.WithDescription("Returns the YAML draft format contract. "+
			"Call this before composing drafts for compute_totals or render_document."),
	), s.getDraftContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Draft Format Contract",
			mcp.WithResourceDescription("YAML format of Invoice/Quotation drafts."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDraftFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type totalsResult struct {
	Kind   models.Kind      `json:"kind"`
	BillTo models.Recipient `json:"bill_to"`
	Items  []itemWithAmount `json:"items"`
	Totals models.Totals    `json:"totals"`
}

type itemWithAmount struct {
	models.LineItem
	Amount float64 `json:"amount"`
}

func (s *Server) computeTotals(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("draft")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := draft.Parse([]byte(src), s.draft)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap := d.Snapshot()
	res := totalsResult{Kind: snap.Kind, Totals: snap.Totals, BillTo: snap.Recipient}
	for _, it := range snap.Items {
		res.Items = append(res.Items, itemWithAmount{LineItem: it, Amount: it.Amount()})
	}
	return jsonResult(res)
}

func (s *Server) renderDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("draft")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var issuedBy *models.Contact
	if username := req.GetString("username", ""); username != "" {
		c, ok := s.dir.Lookup(username)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown user: %s", username)), nil
		}
		issuedBy = &c
	}

	d, err := draft.Parse([]byte(src), s.draft)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.docs.RenderDraft(ctx, issuedBy, d)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if out.Archived {
		return jsonResult(out)
	}

	// Nothing keeps the file, so hand it back.
	meta, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultResource(string(meta), mcp.BlobResourceContents{
		URI:      "folio://rendered/" + out.Filename,
		MIMEType: out.ContentType,
		Blob:     base64.StdEncoding.EncodeToString(out.Data),
	}), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := models.Kind(req.GetString("kind", ""))
	if kind != "" && !kind.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown kind: %s", kind)), nil
	}
	items, total, err := s.docs.ListDocuments(ctx, req.GetInt("limit", 50), req.GetInt("offset", 0), kind)
	if err != nil {
		return mcp.NewToolResultError(archiveError(err)), nil
	}
	return jsonResult(map[string]any{"items": items, "total": total})
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.docs.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(archiveError(err)), nil
	}
	return jsonResult(results)
}

func (s *Server) getDraftContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DraftFormatContract), nil
}

func (s *Server) readDraftFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     DraftFormatContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func archiveError(err error) string {
	if errors.Is(err, docservice.ErrArchiveDisabled) {
		return "archive is disabled (set archive.enabled: true)"
	}
	return err.Error()
}
