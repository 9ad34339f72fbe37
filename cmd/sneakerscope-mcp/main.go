package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// sneaker mirrors the API wire record.
type sneaker struct {
	Name           string   `json:"name"`
	Brand          string   `json:"brand"`
	Price          float64  `json:"price"`
	ImageURL       string   `json:"image_url"`
	ProductURL     string   `json:"product_url"`
	Site           *string  `json:"site"`
	AvailableSizes []string `json:"available_sizes"`
}

// sneakersResponse mirrors both the success and the error body of
// GET /api/sneakers/:site.
type sneakersResponse struct {
	Sneakers []sneaker `json:"sneakers"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type sitesResponse struct {
	Sites []struct {
		Site         string `json:"site"`
		Kind         string `json:"kind"`
		DefaultQuery string `json:"default_query"`
	} `json:"sites"`
}

func main() {
	apiURL := os.Getenv("SNEAKERSCOPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}
	apiKey := os.Getenv("SNEAKERSCOPE_API_KEY")

	s := server.NewMCPServer(
		"sneakerscope",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	getSneakersTool := mcp.NewTool("get_sneakers",
		mcp.WithDescription("List sneakers currently offered on a supported retail site, with name, brand, price, image, product link and sizes. Use list_sites to see which sites are live and which are synthetic stand-ins."),
		mcp.WithString("site",
			mcp.Required(),
			mcp.Description("Site identifier, e.g. 'nike' or 'footlocker'"),
		),
		mcp.WithString("brand",
			mcp.Description("Only return sneakers of this brand (case-insensitive)"),
		),
		mcp.WithString("query",
			mcp.Description("Search text; defaults to the site's own query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (1-100, default 20)"),
		),
	)
	s.AddTool(getSneakersTool, handleGetSneakers(apiURL, apiKey))

	listSitesTool := mcp.NewTool("list_sites",
		mcp.WithDescription("List the supported sites and whether each one is a live data source or a synthetic stand-in."),
	)
	s.AddTool(listSitesTool, handleListSites(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiGet sends a GET request to the sneakerscope API and returns the status and body.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

func handleGetSneakers(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		site, err := request.RequireString("site")
		if err != nil {
			return mcp.NewToolResultError("site is required"), nil
		}

		params := url.Values{}
		if brand := request.GetString("brand", ""); brand != "" {
			params.Set("brand", brand)
		}
		if query := request.GetString("query", ""); query != "" {
			params.Set("q", query)
		}
		if limit := request.GetInt("limit", 0); limit > 0 {
			params.Set("limit", strconv.Itoa(limit))
		}
		path := "/api/sneakers/" + url.PathEscape(site)
		if len(params) > 0 {
			path += "?" + params.Encode()
		}

		_, body, err := apiGet(ctx, client, apiURL, apiKey, path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp sneakersResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if resp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)), nil
		}
		return mcp.NewToolResultText(formatSneakers(site, resp.Sneakers)), nil
	}
}

func handleListSites(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 10 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		_, body, err := apiGet(ctx, client, apiURL, apiKey, "/api/sites")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var resp sitesResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		var b strings.Builder
		for _, s := range resp.Sites {
			fmt.Fprintf(&b, "- %s (%s)", s.Site, s.Kind)
			if s.DefaultQuery != "" {
				fmt.Fprintf(&b, ", default query %q", s.DefaultQuery)
			}
			b.WriteString("\n")
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

// formatSneakers renders results as a markdown list.
func formatSneakers(site string, items []sneaker) string {
	if len(items) == 0 {
		return fmt.Sprintf("No sneakers found on %s.", site)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d sneakers from %s:\n\n", len(items), site)
	for i, s := range items {
		fmt.Fprintf(&b, "%d. **%s** (%s) - $%.2f\n", i+1, s.Name, s.Brand, s.Price)
		fmt.Fprintf(&b, "   %s\n", s.ProductURL)
		if len(s.AvailableSizes) > 0 {
			fmt.Fprintf(&b, "   sizes: %s\n", strings.Join(s.AvailableSizes, ", "))
		}
	}
	return b.String()
}
