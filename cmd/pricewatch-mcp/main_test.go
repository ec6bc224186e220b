package main

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/use-agent/pricewatch/engine"
	"github.com/use-agent/pricewatch/tracker"
)

type staticEngine struct{ html string }

func (staticEngine) Name() string { return "static" }

func (e staticEngine) Fetch(_ context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	return &engine.FetchResult{HTML: e.html, StatusCode: http.StatusOK, FinalURL: req.URL, Attempts: 1}, nil
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	return mcp.GetTextFromContent(res.Content[0]), res.IsError
}

func TestCheckPrice(t *testing.T) {
	svc := tracker.New(staticEngine{html: `<html><body><h1>Stand Mixer Deluxe</h1><p>$129.99</p></body></html>`}, nil, nil)
	text, isErr := call(t, handleCheckPrice(svc, 0), map[string]any{"url": "https://www.target.com/p/abc"})
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	if !strings.Contains(text, "Price: $129.99 (USD)") || !strings.Contains(text, "Stand Mixer Deluxe") {
		t.Errorf("text = %q", text)
	}
}

func TestCheckPriceFailure(t *testing.T) {
	svc := tracker.New(staticEngine{html: `<html><body><h1>Nothing to see</h1></body></html>`}, nil, nil)
	text, isErr := call(t, handleCheckPrice(svc, 0), map[string]any{"url": "https://www.target.com/p/abc"})
	if !isErr || !strings.Contains(text, "EXTRACTION_FAILED") {
		t.Errorf("got (%q, %v)", text, isErr)
	}

	if _, isErr := call(t, handleCheckPrice(svc, 0), map[string]any{}); !isErr {
		t.Error("missing url should be an error result")
	}
}

func TestClassifyURL(t *testing.T) {
	text, isErr := call(t, handleClassify(), map[string]any{"url": "https://www.myntra.com/shoes/123"})
	if isErr || !strings.Contains(text, "Site: myntra") || !strings.Contains(text, "INR") {
		t.Errorf("got (%q, %v)", text, isErr)
	}
}
