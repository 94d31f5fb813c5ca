// Benchmark tool for load-testing Kestrel with synthetic retail events.
//
// Usage:
//
//	go run cmd/benchmark/main.go -count 10000 -url http://localhost:8080
//
// This tool:
//  1. Generates synthetic retail events (sales, returns, inventory adjustments)
//  2. Sends each event to Kestrel for rule processing
//  3. Compares the engine's verdict with the expected rule outcome
//  4. Reports throughput, latency, and match accuracy
//  5. Optionally seeds transactions and times a segmentation run (-segments)
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// SyntheticEvent is one generated event with its expected engine outcome.
type SyntheticEvent struct {
	Type        string
	Data        map[string]any
	ShouldMatch bool
}

// EventRequest is the Kestrel API request format
type EventRequest struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// EventResponse is the Kestrel API response format
type EventResponse struct {
	EventID string `json:"eventId"`
	Result  struct {
		Success         bool   `json:"success"`
		Rule            string `json:"rule"`
		Reason          string `json:"reason"`
		ActionsExecuted int    `json:"actionsExecuted"`
	} `json:"result"`
}

// Metrics tracks benchmark results
type Metrics struct {
	ExpectedMatches   int64 // Events the seeded rules should fire on
	UnexpectedMatches int64 // Events that fired but should not have
	CorrectMatches    int64 // Fired as expected
	CorrectSkips      int64 // Skipped as expected
	MissedMatches     int64 // Should have fired but did not

	TotalProcessed int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	// Parse flags
	baseURL := flag.String("url", "http://localhost:8080", "Kestrel base URL")
	orgID := flag.String("org", "benchmark-test", "Organization ID for requests")
	count := flag.Int("count", 10000, "Number of events to send")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	seed := flag.Int64("seed", 42, "Random seed for event generation")
	segments := flag.Int("segments", 0, "Seed N transactions and time a segmentation run (0 = skip)")
	verbose := flag.Bool("verbose", false, "Print each event result")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║          KESTREL BENCHMARK - Synthetic Retail Events          ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nKestrel URL: %s\n", *baseURL)
	fmt.Printf("Org ID:      %s\n", *orgID)
	fmt.Printf("Events:      %d\n", *count)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Seed:        %d\n", *seed)
	fmt.Println()

	// Check Kestrel is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Kestrel not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Kestrel is running:")
		fmt.Println("  cd kestrel && go run cmd/kestrel/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Kestrel is healthy")

	// Generate synthetic events
	fmt.Printf("\nGenerating %d synthetic events...\n", *count)
	events := generateEvents(*count, *seed)

	matchable := 0
	for _, ev := range events {
		if ev.ShouldMatch {
			matchable++
		}
	}
	fmt.Printf("✓ Generated %d events\n", len(events))
	fmt.Printf("  - Should fire: %d (%.2f%%)\n", matchable, 100*float64(matchable)/float64(len(events)))
	fmt.Printf("  - Should skip: %d (%.2f%%)\n", len(events)-matchable, 100*float64(len(events)-matchable)/float64(len(events)))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(events, *baseURL, *orgID, *workers, *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)

	// Optional segmentation phase
	if *segments > 0 {
		runSegmentationPhase(*baseURL, *orgID, *segments, *seed)
	}
}

// runSegmentationPhase seeds transactions and times one segmentation run.
func runSegmentationPhase(baseURL, orgID string, count int, seed int64) {
	fmt.Printf("\nSeeding %d transactions for segmentation...\n", count)
	rng := rand.New(rand.NewSource(seed))
	client := &http.Client{Timeout: 10 * time.Second}

	seeded := 0
	for i := 0; i < count; i++ {
		tx := map[string]any{
			"customer_id":  fmt.Sprintf("cust-%04d", rng.Intn(count/10+1)),
			"type":         "sale",
			"status":       "completed",
			"total_amount": float64(1+rng.Intn(30000)) / 100.0,
		}
		body, _ := json.Marshal(tx)

		req, _ := http.NewRequest(http.MethodPost, baseURL+"/transactions", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Org-ID", orgID)

		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusCreated {
			seeded++
		}
	}
	fmt.Printf("✓ Seeded %d transactions\n", seeded)

	start := time.Now()
	req, _ := http.NewRequest(http.MethodGet, baseURL+"/segments", nil)
	req.Header.Set("X-Org-ID", orgID)

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("ERROR: segmentation request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var segResp struct {
		Count int `json:"count"`
	}
	json.NewDecoder(resp.Body).Decode(&segResp)

	fmt.Println()
	fmt.Println("  Segmentation:")
	fmt.Printf("    Status:    %d\n", resp.StatusCode)
	fmt.Printf("    Customers: %d\n", segResp.Count)
	fmt.Printf("    Latency:   %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Println()
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// generateEvents builds a mixed stream of retail events. The expectations
// track the default seed rules: completed sales with a positive amount,
// approved returns, and inventory adjustments carrying a reason.
func generateEvents(count int, seed int64) []SyntheticEvent {
	rng := rand.New(rand.NewSource(seed))
	events := make([]SyntheticEvent, 0, count)

	for i := 0; i < count; i++ {
		customerID := fmt.Sprintf("cust-%04d", rng.Intn(500))

		switch rng.Intn(10) {
		case 0, 1: // return
			status := "approved"
			if rng.Intn(4) == 0 {
				status = "rejected"
			}
			events = append(events, SyntheticEvent{
				Type: "return_processed",
				Data: map[string]any{
					"customer_id":   customerID,
					"refund_amount": float64(rng.Intn(20000)) / 100.0,
					"status":        status,
				},
				ShouldMatch: status == "approved",
			})

		case 2: // inventory adjustment
			data := map[string]any{
				"product_id": fmt.Sprintf("sku-%03d", rng.Intn(100)),
				"quantity":   float64(rng.Intn(50)),
			}
			hasReason := rng.Intn(5) != 0
			if hasReason {
				data["reason"] = "cycle_count"
			}
			events = append(events, SyntheticEvent{
				Type:        "inventory_adjustment",
				Data:        data,
				ShouldMatch: hasReason,
			})

		case 3: // unknown event type, never matches
			events = append(events, SyntheticEvent{
				Type: "customer_browsed",
				Data: map[string]any{
					"customer_id": customerID,
				},
				ShouldMatch: false,
			})

		default: // sale
			amount := float64(1+rng.Intn(49999)) / 100.0
			status := "completed"
			if rng.Intn(20) == 0 {
				status = "pending"
			}
			events = append(events, SyntheticEvent{
				Type: "sale_completed",
				Data: map[string]any{
					"customer_id":  customerID,
					"total_amount": amount,
					"status":       status,
				},
				ShouldMatch: status == "completed",
			})
		}
	}

	return events
}

func runBenchmark(events []SyntheticEvent, baseURL, orgID string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	// Create work channel
	work := make(chan SyntheticEvent, 100)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for ev := range work {
				start := time.Now()
				result, err := sendEvent(client, baseURL, orgID, ev)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", ev.Type, err)
					}
					continue
				}

				if ev.ShouldMatch {
					atomic.AddInt64(&metrics.ExpectedMatches, 1)
				}

				fired := result.Result.Success

				switch {
				case fired && ev.ShouldMatch:
					atomic.AddInt64(&metrics.CorrectMatches, 1)
				case fired && !ev.ShouldMatch:
					atomic.AddInt64(&metrics.UnexpectedMatches, 1)
				case !fired && !ev.ShouldMatch:
					atomic.AddInt64(&metrics.CorrectSkips, 1)
				default: // !fired && ev.ShouldMatch
					atomic.AddInt64(&metrics.MissedMatches, 1)
				}

				if verbose {
					status := "✓"
					if fired != ev.ShouldMatch {
						status = "✗"
					}
					fmt.Printf("%s %-22s | Fired: %-5v | Expected: %-5v | Reason: %s | Actions: %d\n",
						status,
						ev.Type,
						fired,
						ev.ShouldMatch,
						result.Result.Reason,
						result.Result.ActionsExecuted,
					)
				}
			}
		}()
	}

	// Send work
	for _, ev := range events {
		work <- ev
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

func sendEvent(client *http.Client, baseURL, orgID string, ev SyntheticEvent) (*EventResponse, error) {
	reqBody := EventRequest{
		Type: ev.Type,
		Data: ev.Data,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/events", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Org-ID", orgID)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result EventResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	total := m.TotalProcessed
	if total == 0 {
		fmt.Println("\nNo events processed.")
		return
	}

	evaluated := total - m.TotalErrors
	accuracy := 0.0
	if evaluated > 0 {
		accuracy = 100 * float64(m.CorrectMatches+m.CorrectSkips) / float64(evaluated)
	}

	avgLatency := float64(m.ProcessingTimeMs) / float64(total)
	throughput := float64(total) / duration.Seconds()

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                        BENCHMARK RESULTS                      ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Duration:       %s\n", duration.Round(time.Millisecond))
	fmt.Printf("  Processed:      %d events\n", total)
	fmt.Printf("  Errors:         %d\n", m.TotalErrors)
	fmt.Printf("  Throughput:     %.1f events/sec\n", throughput)
	fmt.Printf("  Avg latency:    %.2f ms\n", avgLatency)
	fmt.Println()
	fmt.Println("  Rule accuracy:")
	fmt.Printf("    Correct fires:    %d\n", m.CorrectMatches)
	fmt.Printf("    Correct skips:    %d\n", m.CorrectSkips)
	fmt.Printf("    Unexpected fires: %d\n", m.UnexpectedMatches)
	fmt.Printf("    Missed fires:     %d\n", m.MissedMatches)
	fmt.Printf("    Accuracy:         %.2f%%\n", accuracy)
	fmt.Println()

	if m.UnexpectedMatches > 0 || m.MissedMatches > 0 {
		fmt.Println("  NOTE: mismatches usually mean the seed rules were modified")
		fmt.Println("  via the API since the server started.")
		fmt.Println()
	}
}
