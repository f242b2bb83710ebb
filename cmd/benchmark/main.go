package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	users       int
	workload    string
)

// Metrics
var (
	totalRequests uint64
	success200    uint64 // Idempotent replays
	success201    uint64 // Created
	fail400       uint64 // Business-rule rejections (insufficient funds etc.)
	fail409       uint64 // Idempotency conflicts
	failOther     uint64
)

type participant struct {
	id    string
	token string
}

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.IntVar(&users, "users", 50, "Number of wallet holders to sign up")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	participants, err := signupParticipants(users)
	if err != nil {
		log.Fatalf("Signup phase failed: %v", err)
	}
	log.Printf("Signed up %d wallet holders", len(participants))

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, participants)
	}

	wg.Wait()
	printResults(time.Since(start))
}

// signupParticipants creates throwaway users so every worker has real
// wallets and bearer tokens to transfer between.
func signupParticipants(n int) ([]participant, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	run := time.Now().UnixNano()

	participants := make([]participant, 0, n)
	for i := 0; i < n; i++ {
		payload := map[string]string{
			"firstname": fmt.Sprintf("Bench%d", i),
			"lastname":  "Load",
			"email":     fmt.Sprintf("bench-%d-%d@bench.mindhaven.dev", run, i),
			"password":  "benchmark1",
		}
		body, _ := json.Marshal(payload)

		resp, err := client.Post(targetURL+"/api/v1/user/signup", "application/json", bytes.NewBuffer(body))
		if err != nil {
			return nil, err
		}
		var out struct {
			Token string `json:"token"`
		}
		err = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if err != nil || out.Token == "" {
			return nil, fmt.Errorf("signup %d failed (status %d)", i, resp.StatusCode)
		}

		// The /me call resolves the wallet holder's id for recipient picks.
		req, _ := http.NewRequest("GET", targetURL+"/api/v1/user/me", nil)
		req.Header.Set("Authorization", "Bearer "+out.Token)
		meResp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		var me struct {
			User struct {
				ID string `json:"id"`
			} `json:"user"`
		}
		err = json.NewDecoder(meResp.Body).Decode(&me)
		meResp.Body.Close()
		if err != nil || me.User.ID == "" {
			return nil, fmt.Errorf("profile lookup %d failed", i)
		}

		participants = append(participants, participant{id: me.User.ID, token: out.Token})
	}
	return participants, nil
}

func worker(wg *sync.WaitGroup, start time.Time, participants []participant) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Since(start) < duration {
		from, to := pickPair(participants)
		amount := int64(100)

		key := fmt.Sprintf("bench-%s-%s-%d", from.id, to.id, time.Now().UnixNano())

		payload := map[string]interface{}{
			"to":     to.id,
			"amount": amount,
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest("POST", targetURL+"/api/v1/account/transfer", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+from.token)
		req.Header.Set("Idempotency-Key", key)

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case 201:
			atomic.AddUint64(&success201, 1)
		case 200:
			atomic.AddUint64(&success200, 1)
		case 400:
			atomic.AddUint64(&fail400, 1)
		case 409:
			atomic.AddUint64(&fail409, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func pickPair(participants []participant) (participant, participant) {
	if workload == "hotspot" {
		// Hotspot: 90% of traffic bounces between the first two wallets
		if rand.Float32() < 0.90 {
			if rand.Float32() < 0.5 {
				return participants[0], participants[1]
			}
			return participants[1], participants[0]
		}
	}

	a := rand.Intn(len(participants))
	b := rand.Intn(len(participants))
	for a == b {
		b = rand.Intn(len(participants))
	}
	return participants[a], participants[b]
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	s201 := atomic.LoadUint64(&success201)
	s200 := atomic.LoadUint64(&success200)
	f400 := atomic.LoadUint64(&fail400)
	f409 := atomic.LoadUint64(&fail409)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()

	results := map[string]interface{}{
		"workload":           workload,
		"duration_sec":       d.Seconds(),
		"total_requests":     total,
		"throughput_tps":     tps,
		"success_created":    s201,
		"success_replay":     s200,
		"rejected_business":  f400,
		"conflicts_inflight": f409,
		"errors":             fErr,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	filename := fmt.Sprintf("results_%s.json", workload)
	file, _ := os.Create(filename)
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
