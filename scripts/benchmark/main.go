package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8000", "Sneakerscope API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per case for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Cases cover the live and synthetic paths, with and without a brand filter.
var testCases = []struct {
	Label string
	Site  string
	Query string
	Brand string
	Limit int
}{
	{"Live default", "nike", "", "", 20},
	{"Live query", "nike", "air jordan 1", "", 10},
	{"Live brand", "nike", "", "nike", 5},
	{"Synthetic", "footlocker", "", "", 20},
	{"Synthetic brand", "footlocker", "", "adidas", 5},
}

type sneakersResponse struct {
	Sneakers []struct {
		Name  string  `json:"name"`
		Brand string  `json:"brand"`
		Price float64 `json:"price"`
	} `json:"sneakers"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Benchmark result types ---

type runResult struct {
	Run        int    `json:"run"`
	LatencyMs  int64  `json:"latency_ms"`
	StatusCode int    `json:"status_code"`
	Count      int    `json:"count"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

type caseAverages struct {
	LatencyMs float64 `json:"latency_ms"`
	P50Ms     int64   `json:"p50_ms"`
	MaxMs     int64   `json:"max_ms"`
	Count     float64 `json:"count"`
}

type caseResult struct {
	Label    string        `json:"label"`
	Path     string        `json:"path"`
	Runs     []runResult   `json:"runs"`
	Averages *caseAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp   string       `json:"timestamp"`
	APIURL      string       `json:"api_url"`
	RunsPerCase int          `json:"runs_per_case"`
	Results     []caseResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Sneakerscope Benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/case: %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure sneakerscope is running\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		APIURL:      *apiURL,
		RunsPerCase: *runs,
	}

	client := &http.Client{Timeout: 90 * time.Second}
	for _, tc := range testCases {
		path := casePath(tc.Site, tc.Query, tc.Brand, tc.Limit)
		fmt.Printf("Benchmarking [%s] %s ...\n", tc.Label, path)
		cr := caseResult{Label: tc.Label, Path: path}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkCase(client, path, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d sneakers\n", rr.LatencyMs, rr.Count)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			cr.Runs = append(cr.Runs, rr)
		}

		cr.Averages = computeAverages(cr.Runs)
		report.Results = append(report.Results, cr)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func casePath(site, query, brand string, limit int) string {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	if brand != "" {
		v.Set("brand", brand)
	}
	v.Set("limit", strconv.Itoa(limit))
	return "/api/sneakers/" + url.PathEscape(site) + "?" + v.Encode()
}

func benchmarkCase(client *http.Client, path string, run int) runResult {
	rr := runResult{Run: run}

	req, err := http.NewRequest(http.MethodGet, *apiURL+path, nil)
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	if *apiKey != "" {
		req.Header.Set("X-API-Key", *apiKey)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()
	rr.StatusCode = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		var er errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			rr.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		} else {
			rr.Error = fmt.Sprintf("HTTP %d %s: %s", resp.StatusCode, er.Error.Code, er.Error.Message)
		}
		rr.LatencyMs = time.Since(start).Milliseconds()
		return rr
	}

	var sr sneakersResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	rr.LatencyMs = time.Since(start).Milliseconds()
	rr.Count = len(sr.Sneakers)
	rr.Success = true
	return rr
}

func computeAverages(runs []runResult) *caseAverages {
	var latencies []int64
	var avg caseAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		latencies = append(latencies, r.LatencyMs)
		avg.LatencyMs += float64(r.LatencyMs)
		avg.Count += float64(r.Count)
	}

	if len(latencies) == 0 {
		return nil
	}

	n := float64(len(latencies))
	avg.LatencyMs /= n
	avg.Count /= n
	slices.Sort(latencies)
	avg.P50Ms = latencies[len(latencies)/2]
	avg.MaxMs = latencies[len(latencies)-1]
	return &avg
}

func printTable(results []caseResult) {
	fmt.Println(strings.Repeat("─", 72))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Case\tAvg Latency\tp50\tMax\tSneakers\n")
	fmt.Fprintf(w, "────\t───────────\t───\t───\t────────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", r.Label)
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%dms\t%dms\t%.1f\n",
			r.Label,
			int64(r.Averages.LatencyMs),
			r.Averages.P50Ms,
			r.Averages.MaxMs,
			r.Averages.Count,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 72))
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
