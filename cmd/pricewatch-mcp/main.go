package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/pricewatch/config"
	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/site"
	"github.com/use-agent/pricewatch/tracker"
)

func main() {
	cfg := config.Load()

	// stdout carries the protocol; logs go to stderr.
	level := slog.LevelInfo
	if cfg.Log.Level == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	svc, cleanup, err := tracker.FromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	s := newServer(svc, cfg.Server.RequestTimeout)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(svc *tracker.Service, timeout time.Duration) *server.MCPServer {
	s := server.NewMCPServer(
		"pricewatch",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	checkPriceTool := mcp.NewTool("check_price",
		mcp.WithDescription("Fetch an e-commerce product page and return its current price, currency and product name. Supports Amazon, Flipkart, Myntra and 30 other retailers; other shops use generic price markup."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The product page URL"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Serve a cached result younger than this many milliseconds (default 0: always fetch)"),
		),
	)
	s.AddTool(checkPriceTool, handleCheckPrice(svc, timeout))

	classifyTool := mcp.NewTool("classify_url",
		mcp.WithDescription("Identify the retailer, currency and currency symbol of a product URL without fetching it."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The product page URL"),
		),
	)
	s.AddTool(classifyTool, handleClassify())

	return s
}

func handleCheckPrice(svc *tracker.Service, timeout time.Duration) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		maxAge := int(request.GetFloat("max_age", 0))

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		res, _ := svc.ExtractCached(ctx, url, maxAge)
		if !res.OK() {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s\n%s", res.ErrorCode, res.Error, models.Suggestion)), nil
		}

		text := fmt.Sprintf("Product: %s\nSite: %s\nPrice: %s%s (%s)",
			res.ProductName, res.Site, res.CurrencySymbol, formatPrice(*res.Price), res.Currency)
		return jsonResult(text, res)
	}
}

func handleClassify() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		s := site.Classify(url)
		resp := models.ClassifyResponse{
			URL:            url,
			Site:           string(s.ID),
			Currency:       s.Currency,
			CurrencySymbol: s.Symbol,
			Supported:      s.Known(),
		}
		return jsonResult(fmt.Sprintf("Site: %s\nCurrency: %s (%s)", resp.Site, resp.Currency, resp.CurrencySymbol), resp)
	}
}

// jsonResult returns a summary line block followed by the JSON payload.
func jsonResult(summary string, v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(summary + "\n\n" + string(b)), nil
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
