package accountant

import (
	"context"
	"encoding/json"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/prompt"
	"agentic_accounting/pkg/core/rules"
	"agentic_accounting/pkg/mcp"
	"agentic_accounting/pkg/mcp/server"
)

// Resource URIs exposed by the accountant server.
const (
	ResourceChart     = "accounting://chart"
	ResourceSuppliers = "accounting://suppliers"
	ResourceRules     = "accounting://rules"
	ResourceSummary   = "accounting://journal/summary"
)

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errs.IOf("render resource %s: %v", uri, err)
	}
	return []mcp.ResourceContents{{URI: uri, MimeType: "application/json", Text: string(raw)}}, nil
}

func (s *Server) registerResources(srv *server.Server) {
	srv.AddResource(mcp.Resource{
		URI:         ResourceChart,
		Name:        "Chart of accounts",
		Description: "Every account with its type and GST treatment",
		MimeType:    "application/json",
	}, func(ctx context.Context) ([]mcp.ResourceContents, error) {
		return jsonResource(ResourceChart, s.books.Chart.All())
	})

	srv.AddResource(mcp.Resource{
		URI:         ResourceSuppliers,
		Name:        "Supplier directory",
		Description: "Known suppliers with their preferred categorization accounts",
		MimeType:    "application/json",
	}, func(ctx context.Context) ([]mcp.ResourceContents, error) {
		return jsonResource(ResourceSuppliers, s.books.Suppliers.All())
	})

	srv.AddResource(mcp.Resource{
		URI:         ResourceRules,
		Name:        "Accounting rules",
		Description: "Categorization rules in their on-disk plaintext form",
		MimeType:    "text/plain",
	}, func(ctx context.Context) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{{
			URI:      ResourceRules,
			MimeType: "text/plain",
			Text:     string(rules.Render(s.books.Rules.All())),
		}}, nil
	})

	srv.AddResource(mcp.Resource{
		URI:         ResourceSummary,
		Name:        "Journal summary",
		Description: "Headline counts for the company books",
		MimeType:    "application/json",
	}, func(ctx context.Context) ([]mcp.ResourceContents, error) {
		return jsonResource(ResourceSummary, s.books.Summarize())
	})
}

// registerPrompts exposes the built-in templates. Callers supply the
// variables; the handler renders system and user messages in order.
func (s *Server) registerPrompts(srv *server.Server) {
	for _, t := range prompt.Get().List() {
		tmpl := t
		args := make([]mcp.PromptArgument, 0, len(tmpl.Variables))
		for _, v := range tmpl.Variables {
			args = append(args, mcp.PromptArgument{
				Name:        v.Name,
				Description: v.Description,
				Required:    v.Required,
			})
		}
		srv.AddPrompt(mcp.Prompt{
			Name:        tmpl.Name,
			Description: tmpl.Description,
			Arguments:   args,
		}, func(ctx context.Context, raw map[string]string) (*mcp.GetPromptResult, error) {
			vars := make(map[string]interface{}, len(raw))
			for k, v := range raw {
				vars[k] = v
			}
			user, err := tmpl.RenderUser(vars)
			if err != nil {
				return nil, err
			}
			return &mcp.GetPromptResult{
				Description: tmpl.Description,
				Messages: []mcp.PromptMessage{
					{Role: "assistant", Content: mcp.NewTextContent(tmpl.SystemPrompt)},
					{Role: "user", Content: mcp.NewTextContent(user)},
				},
			}, nil
		})
	}
}
