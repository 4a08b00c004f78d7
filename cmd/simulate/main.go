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
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carewise/care-coordinator/internal/config"
	"github.com/carewise/care-coordinator/internal/db"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	PatientLimit int
	PostgresDSN  string
}

type DataPool struct {
	Patients []uuid.UUID
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

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
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
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	StartSession OperationMetrics
	Assistant    OperationMetrics
	Submit       OperationMetrics
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
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d", cfg.Duration, cfg.Workers)

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

	log.Printf("loaded: %d patients", len(dataPool.Patients))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	return SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 200),
		PostgresDSN:  baseCfg.PostgresDSN,
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT id FROM patients LIMIT $1
	`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Patients = append(dataPool.Patients, id)
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

// worker runs full booking conversations: start a session, replay a
// scripted exchange of assistant replies carrying FORM_UPDATE payloads,
// then submit.
func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			s.runConversation(ctx, rng)
		}
	}
}

// conversation is a sequence of assistant replies to post against one
// session. Dates are chosen at runtime so they land on a working day.
type conversation struct {
	doctor      string // as the assistant would write it, resolved by the option matcher
	weekday     time.Weekday
	timeOfDay   string
	extraReply  string
	expectAvail bool
}

var conversations = []conversation{
	{doctor: "Grey, Meredith", weekday: time.Monday, timeOfDay: "10:00", expectAvail: true},
	{doctor: "grey", weekday: time.Friday, timeOfDay: "16:30", expectAvail: true},
	{doctor: "House, Gregory", weekday: time.Monday, timeOfDay: "08:30", expectAvail: true},
	{doctor: "house", weekday: time.Tuesday, timeOfDay: "14:00", expectAvail: true},
	{
		doctor: "House, Gregory", weekday: time.Saturday, timeOfDay: "09:00",
		extraReply:  "Dr. House is not in on weekends, let me check weekday openings instead.",
		expectAvail: false,
	},
}

func (s *Simulator) runConversation(ctx context.Context, rng *rand.Rand) {
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	conv := conversations[rng.Intn(len(conversations))]

	sessionID, ok := s.doStartSession(ctx, patientID)
	if !ok {
		return
	}
	defer s.endSession(sessionID)

	date := nextWeekday(time.Now(), conv.weekday)

	replies := []string{
		fmt.Sprintf(
			"I'd be happy to help you book with %s. FORM_UPDATE: {\"doctor\": \"%s\"}",
			conv.doctor, conv.doctor),
		fmt.Sprintf(
			"Let me pencil that in. FORM_UPDATE: {\"appointment-date\": \"%s\", \"appointment-time\": \"%s\"}",
			date.Format("2006-01-02"), conv.timeOfDay),
	}
	if conv.extraReply != "" {
		replies = append(replies, conv.extraReply)
	}

	for _, reply := range replies {
		if !s.doAssistantReply(ctx, sessionID, reply) {
			return
		}
	}

	if conv.expectAvail {
		s.doSubmit(ctx, sessionID)
	}
}

func (s *Simulator) doStartSession(ctx context.Context, patientID uuid.UUID) (uuid.UUID, bool) {
	start := time.Now()

	body, _ := json.Marshal(map[string]string{"patient_id": patientID.String()})
	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	if err != nil {
		s.metrics.StartSession.Record(latency, false, false)
		return uuid.Nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		s.metrics.StartSession.Record(latency, false, false)
		return uuid.Nil, false
	}

	var view struct {
		SessionID uuid.UUID `json:"session_id"`
	}
	bodyBytes, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(bodyBytes, &view); err != nil || view.SessionID == uuid.Nil {
		s.metrics.StartSession.Record(latency, false, false)
		return uuid.Nil, false
	}

	s.metrics.StartSession.Record(latency, true, false)
	return view.SessionID, true
}

func (s *Simulator) doAssistantReply(ctx context.Context, sessionID uuid.UUID, text string) bool {
	start := time.Now()

	body, _ := json.Marshal(map[string]string{"text": text})
	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/sessions/%s/assistant", s.config.APIBaseURL, sessionID.String()),
		bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			success = true
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	s.metrics.Assistant.Record(latency, success, conflict)
	return success
}

func (s *Simulator) doSubmit(ctx context.Context, sessionID uuid.UUID) {
	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/sessions/%s/submit", s.config.APIBaseURL, sessionID.String()), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusCreated {
			success = true
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	s.metrics.Submit.Record(latency, success, conflict)
}

func (s *Simulator) endSession(sessionID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, "DELETE",
		fmt.Sprintf("%s/sessions/%s", s.config.APIBaseURL, sessionID.String()), nil)
	resp, err := s.client.Do(req)
	if err == nil {
		resp.Body.Close()
	}
}

// nextWeekday returns the first date strictly after from that falls on day.
func nextWeekday(from time.Time, day time.Weekday) time.Time {
	d := from.AddDate(0, 0, 1)
	for d.Weekday() != day {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Start Session", &s.metrics.StartSession)
	printOperationReport("Assistant Reply", &s.metrics.Assistant)
	printOperationReport("Submit", &s.metrics.Submit)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
