/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       High-performance load-testing CLI: paces requests at
             a target rate across a bounded worker pool, against
             one or more gateway nodes and a pool of credentials,
             then emits a JSON performance report (success rate,
             latency percentiles, error breakdown, per-credential
             throughput).
Root Cause:  Sprint task — load-testing tool for the rate-limited
             completion gateway.
Context:     Request bodies are sized deterministically per
             credential (MD5 hash of the credential string) so
             repeated runs against the same credential pool are
             comparable.
Suitability: L3 — orchestration and statistics, no novel algorithm.
──────────────────────────────────────────────────────────────
*/

package main

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var samplePrompts = []string{
	"Explain the concept of distributed systems.",
	"Write a function to reverse a string.",
	"What are the benefits of using a sliding window for rate limiting?",
	"Describe how token bucket algorithms work.",
	"Generate a haiku about programming.",
	"Compare REST vs GraphQL APIs.",
	"Explain the CAP theorem in distributed systems.",
	"Write a SQL query to find duplicate records.",
	"What is the difference between async and sync programming?",
	"How does load balancing work in microservices?",
}

type nodeList []string

func (n *nodeList) String() string { return strings.Join(*n, ",") }
func (n *nodeList) Set(v string) error {
	*n = append(*n, v)
	return nil
}

type requestResult struct {
	Success      bool
	StatusCode   int
	ResponseTime time.Duration
	Credential   string
	ErrorMessage string
}

func main() {
	var nodes nodeList
	var apiKeys nodeList
	flag.Var(&nodes, "nodes", "target gateway node base URL (repeatable)")
	flag.Var(&apiKeys, "api-keys", "credential to test with (repeatable)")
	concurrent := flag.Int("concurrent", 100, "number of concurrent requests")
	duration := flag.Int("duration", 60, "test duration in seconds")
	rps := flag.Int("rate", 1000, "requests per second")
	output := flag.String("output", "test_results.json", "output file for the JSON report")
	flag.Parse()

	if len(nodes) == 0 {
		nodes = nodeList{"http://localhost:8080"}
	}
	if len(apiKeys) == 0 {
		apiKeys = nodeList{"test_key_1", "test_key_2", "test_key_3"}
	}

	log.Printf("starting load test: %d concurrent, %ds duration, %d req/s, %d nodes, %d keys",
		*concurrent, *duration, *rps, len(nodes), len(apiKeys))

	results := runLoadTest(nodes, apiKeys, *concurrent, *duration, *rps)
	report := buildReport(results, nodes, apiKeys, *concurrent, *duration, *rps)

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatalf("failed to write report: %v", err)
	}

	printSummary(report)
}

func runLoadTest(nodes, apiKeys nodeList, concurrent, duration, rps int) []requestResult {
	limiter := rate.NewLimiter(rate.Limit(rps), rps)
	totalRequests := duration * rps

	sem := make(chan struct{}, concurrent)
	var mu sync.Mutex
	results := make([]requestResult, 0, totalRequests)

	client := &http.Client{Timeout: 30 * time.Second}

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < totalRequests; i++ {
		i := i
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()

			node := nodes[i%len(nodes)]
			credential := apiKeys[rand.Intn(len(apiKeys))]
			body := generateRequest(credential)

			r := sendRequest(client, node, credential, body)

			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// generateRequest deterministically sizes a chat-completion request body
// off the credential's MD5 hash, mirroring the reference load generator's
// approach so repeated runs against the same credential pool produce
// comparable input sizes.
func generateRequest(credential string) []byte {
	sum := md5.Sum([]byte(credential))
	inputTokens := 100 + int(binary.BigEndian.Uint16(sum[0:2])%900)

	prompt := samplePrompts[rand.Intn(len(samplePrompts))]
	wordsNeeded := int(float64(inputTokens) * 0.75)
	var sb strings.Builder
	sb.WriteString(prompt)
	for len(strings.Fields(sb.String())) < wordsNeeded {
		sb.WriteString(" ")
		sb.WriteString(prompt)
	}

	maxTokens := 50 + rand.Intn(451)
	temperature := 0.1 + rand.Float64()*0.9

	payload := map[string]interface{}{
		"model": "gpt-3.5-turbo",
		"messages": []map[string]string{
			{"role": "user", "content": sb.String()},
		},
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}
	b, _ := json.Marshal(payload)
	return b
}

func sendRequest(client *http.Client, node, credential string, body []byte) requestResult {
	start := time.Now()

	req, err := http.NewRequest(http.MethodPost, node+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return requestResult{Success: false, ResponseTime: time.Since(start), Credential: credential, ErrorMessage: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "sentry-gateway-loadtest/1.0")

	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return requestResult{Success: false, ResponseTime: elapsed, Credential: credential, ErrorMessage: err.Error()}
	}
	defer resp.Body.Close()

	return requestResult{
		Success:      resp.StatusCode == http.StatusOK,
		StatusCode:   resp.StatusCode,
		ResponseTime: elapsed,
		Credential:   credential,
	}
}

type report struct {
	TestConfig         testConfig                  `json:"test_config"`
	Summary            summary                     `json:"summary"`
	PerformanceMetrics performanceMetrics          `json:"performance_metrics"`
	ErrorAnalysis      errorAnalysis               `json:"error_analysis"`
	ThroughputByKey    map[string]keyThroughput    `json:"throughput_by_key"`
}

type testConfig struct {
	TargetNodes         []string `json:"target_nodes"`
	APIKeysCount        int      `json:"api_keys_count"`
	ConcurrentRequests  int      `json:"concurrent_requests"`
	DurationSeconds     int      `json:"duration_seconds"`
	RequestRate         int      `json:"request_rate"`
	TotalExpectedReqs   int      `json:"total_expected_requests"`
}

type summary struct {
	TotalRequests      int     `json:"total_requests"`
	SuccessfulRequests int     `json:"successful_requests"`
	FailedRequests     int     `json:"failed_requests"`
	SuccessRate        float64 `json:"success_rate"`
	TestDurationSec    float64 `json:"test_duration_seconds"`
	RequestsPerSecond  float64 `json:"requests_per_second"`
}

type performanceMetrics struct {
	MinResponseTimeMs    float64 `json:"min_response_time_ms"`
	MaxResponseTimeMs    float64 `json:"max_response_time_ms"`
	MeanResponseTimeMs   float64 `json:"mean_response_time_ms"`
	MedianResponseTimeMs float64 `json:"median_response_time_ms"`
	P95ResponseTimeMs    float64 `json:"p95_response_time_ms"`
	P99ResponseTimeMs    float64 `json:"p99_response_time_ms"`
	StdDevResponseTimeMs float64 `json:"std_dev_response_time_ms"`
}

type errorAnalysis struct {
	TotalErrors    int            `json:"total_errors"`
	ErrorTypes     map[string]int `json:"error_types"`
	RateLimitHits  int            `json:"rate_limit_hits"`
}

type keyThroughput struct {
	TotalRequests     int     `json:"total_requests"`
	SuccessRate       float64 `json:"success_rate"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

func buildReport(results []requestResult, nodes, apiKeys nodeList, concurrent, duration, rps int) report {
	rep := report{
		TestConfig: testConfig{
			TargetNodes:        nodes,
			APIKeysCount:       len(apiKeys),
			ConcurrentRequests: concurrent,
			DurationSeconds:    duration,
			RequestRate:        rps,
			TotalExpectedReqs:  duration * rps,
		},
		ThroughputByKey: make(map[string]keyThroughput),
	}

	if len(results) == 0 {
		return rep
	}

	var succeeded, failed int
	errorTypes := make(map[string]int)
	rateLimitHits := 0
	times := make([]float64, 0, len(results))
	perKey := make(map[string]*struct {
		requests int
		success  int
	})

	var totalDuration time.Duration
	for _, r := range results {
		ms := float64(r.ResponseTime.Microseconds()) / 1000.0
		times = append(times, ms)
		totalDuration += r.ResponseTime

		if r.Success {
			succeeded++
		} else {
			failed++
			errorTypes[r.ErrorMessage]++
		}
		if r.StatusCode == http.StatusTooManyRequests {
			rateLimitHits++
		}

		k, ok := perKey[r.Credential]
		if !ok {
			k = &struct {
				requests int
				success  int
			}{}
			perKey[r.Credential] = k
		}
		k.requests++
		if r.Success {
			k.success++
		}
	}

	sort.Float64s(times)
	testDurationSec := float64(duration)

	rep.Summary = summary{
		TotalRequests:      len(results),
		SuccessfulRequests: succeeded,
		FailedRequests:     failed,
		SuccessRate:        float64(succeeded) / float64(len(results)),
		TestDurationSec:    testDurationSec,
		RequestsPerSecond:  float64(len(results)) / testDurationSec,
	}

	rep.PerformanceMetrics = performanceMetrics{
		MinResponseTimeMs:    percentile(times, 0),
		MaxResponseTimeMs:    percentile(times, 100),
		MeanResponseTimeMs:   mean(times),
		MedianResponseTimeMs: percentile(times, 50),
		P95ResponseTimeMs:    percentile(times, 95),
		P99ResponseTimeMs:    percentile(times, 99),
		StdDevResponseTimeMs: stdDev(times),
	}

	rep.ErrorAnalysis = errorAnalysis{
		TotalErrors:   failed,
		ErrorTypes:    errorTypes,
		RateLimitHits: rateLimitHits,
	}

	for k, v := range perKey {
		rep.ThroughputByKey[k] = keyThroughput{
			TotalRequests:     v.requests,
			SuccessRate:       float64(v.success) / float64(v.requests),
			RequestsPerSecond: float64(v.requests) / testDurationSec,
		}
	}

	return rep
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}

// percentile expects xs sorted ascending.
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	idx := int(p / 100 * float64(len(xs)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(xs) {
		idx = len(xs) - 1
	}
	return xs[idx]
}

func printSummary(r report) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("LOAD TEST SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Total Requests: %d\n", r.Summary.TotalRequests)
	fmt.Printf("Successful: %d\n", r.Summary.SuccessfulRequests)
	fmt.Printf("Failed: %d\n", r.Summary.FailedRequests)
	fmt.Printf("Success Rate: %.2f%%\n", r.Summary.SuccessRate*100)
	fmt.Printf("Duration: %.2fs\n", r.Summary.TestDurationSec)
	fmt.Printf("Throughput: %.2f req/s\n", r.Summary.RequestsPerSecond)
	fmt.Println()
	fmt.Printf("Min Response Time: %.2fms\n", r.PerformanceMetrics.MinResponseTimeMs)
	fmt.Printf("Mean Response Time: %.2fms\n", r.PerformanceMetrics.MeanResponseTimeMs)
	fmt.Printf("P95 Response Time: %.2fms\n", r.PerformanceMetrics.P95ResponseTimeMs)
	fmt.Printf("P99 Response Time: %.2fms\n", r.PerformanceMetrics.P99ResponseTimeMs)

	if r.ErrorAnalysis.RateLimitHits > 0 {
		fmt.Printf("\nRate Limit Hits: %d\n", r.ErrorAnalysis.RateLimitHits)
	}
}
