// Command loadgen hammers the payment recording endpoint with concurrent
// writers against a single order. The server must never confirm more money
// than the order total, so a run whose accepted amount exceeds the total
// indicates a broken ledger guard. Rejections with an overpayment code are
// the expected steady state once the order is settled.
//
// Usage:
//
//	loadgen -base-url http://localhost:8080 -order <uuid> -party <uuid> \
//	    -total 1000 -amount 50 -requests 200 -workers 16
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type options struct {
	baseURL  string
	orderID  string
	partyID  string
	total    float64
	amount   float64
	requests int
	workers  int
	timeout  time.Duration
}

type apiEnvelope struct {
	Success bool `json:"success"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type counters struct {
	accepted    atomic.Int64
	overpayment atomic.Int64
	conflict    atomic.Int64
	timeout     atomic.Int64
	other       atomic.Int64
}

func main() {
	opts := parseFlags()
	actor := uuid.New()

	client := &http.Client{Timeout: opts.timeout}
	endpoint := opts.baseURL + "/api/v1/ledger/payments"

	jobs := make(chan int)
	latencies := make([]time.Duration, opts.requests)
	var stats counters

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < opts.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				began := time.Now()
				code, err := recordPayment(client, endpoint, actor, opts)
				latencies[i] = time.Since(began)
				classify(&stats, code, err)
			}
		}()
	}
	for i := 0; i < opts.requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	report(opts, &stats, latencies, elapsed)

	acceptedAmount := float64(stats.accepted.Load()) * opts.amount
	if opts.total > 0 && acceptedAmount > opts.total {
		fmt.Fprintf(os.Stderr, "INVARIANT VIOLATED: accepted %.2f exceeds order total %.2f\n",
			acceptedAmount, opts.total)
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "server base URL")
	flag.StringVar(&opts.orderID, "order", "", "target order ID (required)")
	flag.StringVar(&opts.partyID, "party", "", "paying party ID (required)")
	flag.Float64Var(&opts.total, "total", 0, "order total, enables the overpay check when > 0")
	flag.Float64Var(&opts.amount, "amount", 50, "amount per payment")
	flag.IntVar(&opts.requests, "requests", 100, "number of payment requests")
	flag.IntVar(&opts.workers, "workers", 8, "concurrent workers")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	if opts.orderID == "" || opts.partyID == "" {
		flag.Usage()
		os.Exit(2)
	}
	if _, err := uuid.Parse(opts.orderID); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -order: %v\n", err)
		os.Exit(2)
	}
	if _, err := uuid.Parse(opts.partyID); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -party: %v\n", err)
		os.Exit(2)
	}
	return opts
}

func recordPayment(client *http.Client, endpoint string, actor uuid.UUID, opts options) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"order_id": opts.orderID,
		"party_id": opts.partyID,
		"method":   "CASH",
		"amount":   opts.amount,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", actor.String())

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("status %d with unreadable body: %w", resp.StatusCode, err)
	}
	if envelope.Success {
		return "", nil
	}
	if envelope.Error != nil {
		return envelope.Error.Code, nil
	}
	return "", fmt.Errorf("status %d without error detail", resp.StatusCode)
}

func classify(stats *counters, code string, err error) {
	switch {
	case err != nil:
		stats.other.Add(1)
	case code == "":
		stats.accepted.Add(1)
	case code == "ERR_OVERPAYMENT":
		stats.overpayment.Add(1)
	case code == "ERR_CONCURRENCY_CONFLICT":
		stats.conflict.Add(1)
	case code == "ERR_TRANSACTION_TIMEOUT":
		stats.timeout.Add(1)
	default:
		stats.other.Add(1)
	}
}

func report(opts options, stats *counters, latencies []time.Duration, elapsed time.Duration) {
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	fmt.Printf("requests:     %d over %s (%.1f req/s)\n",
		opts.requests, elapsed.Round(time.Millisecond),
		float64(opts.requests)/elapsed.Seconds())
	fmt.Printf("accepted:     %d (%.2f total)\n",
		stats.accepted.Load(), float64(stats.accepted.Load())*opts.amount)
	fmt.Printf("overpayment:  %d\n", stats.overpayment.Load())
	fmt.Printf("conflicts:    %d\n", stats.conflict.Load())
	fmt.Printf("timeouts:     %d\n", stats.timeout.Load())
	fmt.Printf("other errors: %d\n", stats.other.Load())
	if len(sorted) > 0 {
		fmt.Printf("latency:      p50=%s p95=%s max=%s\n",
			percentile(sorted, 50), percentile(sorted, 95), sorted[len(sorted)-1])
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}
