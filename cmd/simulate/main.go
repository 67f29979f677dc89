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

	"github.com/hackgods/hospital-guard-duty/internal/config"
	"github.com/hackgods/hospital-guard-duty/internal/db"
)

// The simulator hammers the API with deliberately colliding requests: many
// workers proposing overlapping vacations and same-month guards for a small
// set of doctors. Afterwards it checks the database directly: no doctor may
// hold two overlapping vacation periods, and no doctor may exceed the
// monthly quota. Exactly-one-winner is the whole point.

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	VacationRatio float64
	DoctorLimit   int
	Quota         int
	PostgresDSN   string
}

type DataPool struct {
	Doctors    []int64
	ShiftSlots []int32

	mu          sync.RWMutex
	specialties map[int64][]int32 // eligible specialties per doctor
}

func (dp *DataPool) SpecialtyFor(license int64) (int32, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	codes := dp.specialties[license]
	if len(codes) == 0 {
		return 0, false
	}
	return codes[rand.Intn(len(codes))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, p50, p95
}

type Metrics struct {
	Vacations OperationMetrics
	Guards    OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()

	log.Printf("config: duration=%s workers=%d vacation_ratio=%.2f doctors=%d",
		cfg.Duration, cfg.Workers, cfg.VacationRatio, cfg.DoctorLimit)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d doctors, %d shift slots", len(dataPool.Doctors), len(dataPool.ShiftSlots))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()

	if err := verifyInvariants(context.Background(), pgPool, cfg); err != nil {
		log.Fatalf("INVARIANT VIOLATED: %v", err)
	}
	log.Println("invariants hold: no overlapping vacations, no quota breaches")
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	return SimConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		VacationRatio: getFloat("SIM_VACATION_RATIO", 0.5),
		DoctorLimit:   getInt("SIM_DOCTOR_LIMIT", 10),
		Quota:         baseCfg.MonthlyGuardQuota,
		PostgresDSN:   baseCfg.PostgresDSN,
	}
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dp := &DataPool{specialties: make(map[int64][]int32)}

	rows, err := pool.Query(ctx, `
		SELECT d.license, s.specialty_code
		FROM doctors d
		JOIN doctor_specialties s ON s.doctor_license = d.license
		WHERE d.license IN (SELECT license FROM doctors ORDER BY license LIMIT $1)
		ORDER BY d.license
	`, cfg.DoctorLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[int64]bool)
	for rows.Next() {
		var license int64
		var code int32
		if err := rows.Scan(&license, &code); err != nil {
			return nil, err
		}
		if !seen[license] {
			seen[license] = true
			dp.Doctors = append(dp.Doctors, license)
		}
		dp.specialties[license] = append(dp.specialties[license], code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slotRows, err := pool.Query(ctx, `SELECT id FROM shift_slots ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer slotRows.Close()

	for slotRows.Next() {
		var id int32
		if err := slotRows.Scan(&id); err != nil {
			return nil, err
		}
		dp.ShiftSlots = append(dp.ShiftSlots, id)
	}
	if err := slotRows.Err(); err != nil {
		return nil, err
	}

	if len(dp.Doctors) == 0 || len(dp.ShiftSlots) == 0 {
		return nil, fmt.Errorf("no doctors or shift slots seeded, run cmd/seed first")
	}

	return dp, nil
}

func (s *Simulator) Run() {
	deadline := time.Now().Add(s.config.Duration)
	var wg sync.WaitGroup

	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				if rand.Float64() < s.config.VacationRatio {
					s.createVacation()
				} else {
					s.createGuard()
				}
			}
		}()
	}

	wg.Wait()
}

// createVacation proposes a period inside one shared quarter so collisions
// between workers are frequent.
func (s *Simulator) createVacation() {
	license := s.pool.Doctors[rand.Intn(len(s.pool.Doctors))]

	base := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	start := base.AddDate(0, 0, rand.Intn(80))
	end := start.AddDate(0, 0, rand.Intn(10))

	body := map[string]any{
		"doctor_license": license,
		"start":          start.Format(time.DateOnly),
		"end":            end.Format(time.DateOnly),
	}

	s.post("/vacations", body, &s.metrics.Vacations)
}

// createGuard schedules guards inside one shared month so the quota is the
// contended resource.
func (s *Simulator) createGuard() {
	license := s.pool.Doctors[rand.Intn(len(s.pool.Doctors))]
	specialty, ok := s.pool.SpecialtyFor(license)
	if !ok {
		return
	}
	slot := s.pool.ShiftSlots[rand.Intn(len(s.pool.ShiftSlots))]

	scheduled := time.Date(2026, time.March, 1+rand.Intn(28), 8*(1+rand.Intn(2)), 0, 0, 0, time.UTC)

	body := map[string]any{
		"scheduled_at":   scheduled.Format(time.RFC3339),
		"doctor_license": license,
		"specialty_code": specialty,
		"shift_slot_id":  slot,
	}

	s.post("/guards", body, &s.metrics.Guards)
}

func (s *Simulator) post(path string, body map[string]any, metrics *OperationMetrics) {
	payload, err := json.Marshal(body)
	if err != nil {
		log.Printf("marshal %s body: %v", path, err)
		return
	}

	start := time.Now()
	resp, err := s.client.Post(s.config.APIBaseURL+path, "application/json", bytes.NewReader(payload))
	latency := time.Since(start)

	if err != nil {
		metrics.Record(latency, false, false)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	success := resp.StatusCode == http.StatusCreated
	conflict := resp.StatusCode == http.StatusConflict
	metrics.Record(latency, success, conflict)
}

func (s *Simulator) PrintReport() {
	report := func(name string, om *OperationMetrics) {
		avg, p50, p95 := om.Stats()
		log.Printf("%s: total=%d success=%d conflict=%d error=%d avg=%s p50=%s p95=%s",
			name, om.Total, om.Success, om.Conflict, om.Error, avg, p50, p95)
	}
	report("vacations", &s.metrics.Vacations)
	report("guards", &s.metrics.Guards)
}

func verifyInvariants(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) error {
	var overlapping int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM vacation_periods a
		JOIN vacation_periods b
		  ON a.doctor_license = b.doctor_license
		 AND (a.start_date, a.end_date) <> (b.start_date, b.end_date)
		 AND a.start_date <= b.end_date
		 AND b.start_date <= a.end_date
	`).Scan(&overlapping)
	if err != nil {
		return err
	}
	if overlapping > 0 {
		return fmt.Errorf("%d overlapping vacation period pairs", overlapping)
	}

	var breaches int
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM (
			SELECT doctor_license, date_trunc('month', scheduled_at) AS month, COUNT(*) AS guards
			FROM guard_assignments
			GROUP BY doctor_license, date_trunc('month', scheduled_at)
		) monthly
		WHERE monthly.guards > $1
	`, cfg.Quota).Scan(&breaches)
	if err != nil {
		return err
	}
	if breaches > 0 {
		return fmt.Errorf("%d doctor-months above the quota of %d", breaches, cfg.Quota)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
