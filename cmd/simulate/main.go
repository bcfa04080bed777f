// simulate hammers the booking API with concurrent create requests that
// all target the same handful of slots, then checks in Postgres that the
// no-double-booking invariant held. Intended for load and race testing
// against a seeded database.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalops/frontdesk-scheduling/internal/db"
)

type SimConfig struct {
	APIBaseURL  string
	Workers     int
	Attempts    int
	TargetDate  string
	SlotLimit   int
	PostgresDSN string
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Workers:     getEnvInt("SIM_WORKERS", 16),
		Attempts:    getEnvInt("SIM_ATTEMPTS", 400),
		TargetDate:  getEnv("SIM_TARGET_DATE", time.Now().AddDate(0, 0, 1).Format("2006-01-02")),
		SlotLimit:   getEnvInt("SIM_SLOT_LIMIT", 10),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
	}
	return cfg
}

type slotResponse struct {
	ProvNum       int64  `json:"ProvNum"`
	OpNum         int64  `json:"OpNum"`
	StartDateTime string `json:"startDateTime"`
}

type createRequest struct {
	PatNum      int64  `json:"PatNum"`
	AptDateTime string `json:"AptDateTime"`
	OpNum       int64  `json:"OpNum"`
	ProvNum     int64  `json:"ProvNum"`
	Note        string `json:"Note"`
}

type metrics struct {
	total     int64
	created   int64
	conflicts int64
	errors    int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *metrics) record(latency time.Duration, status int) {
	atomic.AddInt64(&m.total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&m.created, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.conflicts, 1)
	default:
		atomic.AddInt64(&m.errors, 1)
	}
	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *metrics) percentile(p float64) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func main() {
	log.SetFlags(log.LstdFlags)
	cfg := loadSimConfig()

	log.Printf("simulate: base_url=%s workers=%d attempts=%d date=%s",
		cfg.APIBaseURL, cfg.Workers, cfg.Attempts, cfg.TargetDate)

	client := &http.Client{Timeout: 10 * time.Second}

	slots, err := fetchSlots(client, cfg)
	if err != nil {
		log.Fatalf("fetch slots: %v", err)
	}
	if len(slots) == 0 {
		log.Fatal("no free slots on target date; run the seed tool first")
	}
	if len(slots) > cfg.SlotLimit {
		slots = slots[:cfg.SlotLimit]
	}
	log.Printf("targeting %d slots, all workers compete for the same few", len(slots))

	patNums, err := loadPatients(cfg)
	if err != nil {
		log.Fatalf("load patients: %v", err)
	}

	var m metrics
	var wg sync.WaitGroup
	attempts := make(chan int)

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range attempts {
				slot := slots[rand.Intn(len(slots))]
				pat := patNums[rand.Intn(len(patNums))]
				bookOnce(client, cfg, slot, pat, &m)
			}
		}()
	}

	start := time.Now()
	for i := 0; i < cfg.Attempts; i++ {
		attempts <- i
	}
	close(attempts)
	wg.Wait()
	elapsed := time.Since(start)

	log.Printf("done in %s: total=%d created=%d conflicts=%d errors=%d p50=%s p99=%s",
		elapsed, m.total, m.created, m.conflicts, m.errors,
		m.percentile(0.50), m.percentile(0.99))

	if cfg.PostgresDSN != "" {
		if err := verifyNoDoubleBookings(cfg); err != nil {
			log.Fatalf("INVARIANT VIOLATED: %v", err)
		}
		log.Println("invariant holds: no double bookings in storage")
	}
}

func fetchSlots(client *http.Client, cfg SimConfig) ([]slotResponse, error) {
	url := fmt.Sprintf("%s/api/v1/slots?dateStart=%s&dateEnd=%s&searchAll=true",
		cfg.APIBaseURL, cfg.TargetDate, cfg.TargetDate)
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var slots []slotResponse
	if err := json.NewDecoder(resp.Body).Decode(&slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func bookOnce(client *http.Client, cfg SimConfig, slot slotResponse, patNum int64, m *metrics) {
	payload, _ := json.Marshal(createRequest{
		PatNum:      patNum,
		AptDateTime: slot.StartDateTime,
		OpNum:       slot.OpNum,
		ProvNum:     slot.ProvNum,
		Note:        "simulated booking",
	})

	start := time.Now()
	resp, err := client.Post(cfg.APIBaseURL+"/api/v1/appointments", "application/json", bytes.NewReader(payload))
	latency := time.Since(start)
	if err != nil {
		m.record(latency, 0)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	m.record(latency, resp.StatusCode)
}

func loadPatients(cfg SimConfig) ([]int64, error) {
	if cfg.PostgresDSN == "" {
		// No DB access configured; synthesize likely-seeded ids.
		nums := make([]int64, 100)
		for i := range nums {
			nums[i] = int64(i + 1)
		}
		return nums, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	return queryPatNums(ctx, pool, 500)
}

func queryPatNums(ctx context.Context, pool *pgxpool.Pool, limit int) ([]int64, error) {
	rows, err := pool.Query(ctx, `SELECT pat_num FROM patients LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nums []int64
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		nums = append(nums, n)
	}
	return nums, rows.Err()
}

func verifyNoDoubleBookings(cfg SimConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	var dupes int
	err = pool.QueryRow(ctx, `
		SELECT count(*)
		FROM (
			SELECT prov_num, op_num, apt_datetime
			FROM appointments
			WHERE status = 'Scheduled'
			GROUP BY prov_num, op_num, apt_datetime
			HAVING count(*) > 1
		) d
	`).Scan(&dupes)
	if err != nil {
		return err
	}
	if dupes > 0 {
		return fmt.Errorf("%d duplicated (provider, operatory, start) triples", dupes)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
