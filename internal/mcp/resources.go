package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/pulseboard/internal/dashboard"
	"github.com/claude/pulseboard/internal/metrics"
	"github.com/mark3labs/mcp-go/mcp"
)

// catalogEntry describes one metric in the catalog resource.
type catalogEntry struct {
	Name  metrics.Kind `json:"name"`
	Title string       `json:"title"`
	Unit  string       `json:"unit"`
}

func (h *handlers) today(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	email := EmailFromContext(ctx)
	if email == "" {
		email = h.defaultEmail
	}

	view, err := h.b.Cards(ctx, dashboard.Query{Email: email})
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, view)
}

func (h *handlers) metricCatalog(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	catalog := make([]catalogEntry, 0, len(metrics.Kinds))
	for _, k := range metrics.Kinds {
		catalog = append(catalog, catalogEntry{Name: k, Title: k.Title(), Unit: k.Unit()})
	}
	return jsonResource(req.Params.URI, catalog)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
