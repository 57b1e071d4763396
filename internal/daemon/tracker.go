package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cryptoscan/pkg/model"
)

// DailyStats 일일 스캔 통계
type DailyStats struct {
	Date      string    `json:"date"`
	Cycles    int       `json:"cycles"`
	Failures  int       `json:"failures"`
	Scanned   int       `json:"scanned"` // symbol/timeframe pairs
	Skipped   int       `json:"skipped"`
	Detected  int       `json:"detected"`
	Admitted  int       `json:"admitted"`
	Sent      int       `json:"sent"`
	LastCycle time.Time `json:"last_cycle,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// DailyTracker keeps per-day cycle counters and persists them as JSON
type DailyTracker struct {
	dataDir string
	state   DailyStats
	now     func() time.Time
	mu      sync.RWMutex
}

// NewDailyTracker 생성자. An empty dataDir keeps the stats in memory only.
func NewDailyTracker(dataDir string) *DailyTracker {
	return &DailyTracker{
		dataDir: dataDir,
		now:     time.Now,
	}
}

// RecordCycle adds one completed cycle
func (t *DailyTracker) RecordCycle(res *model.ScanResult, sent int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	t.state.Cycles++
	t.state.Scanned += res.Scanned
	t.state.Skipped += len(res.Skipped)
	t.state.Detected += len(res.Detected)
	t.state.Admitted += len(res.Admitted)
	t.state.Sent += sent
	t.state.LastCycle = t.now()
	return t.saveState()
}

// RecordFailure adds one failed cycle
func (t *DailyTracker) RecordFailure(cause error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	t.state.Failures++
	t.state.LastError = cause.Error()
	t.state.LastCycle = t.now()
	return t.saveState()
}

// Stats returns a copy of today's counters
func (t *DailyTracker) Stats() DailyStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// rollover 날짜가 바뀌면 새 통계 시작 (같은 날 재시작이면 파일에서 복원)
func (t *DailyTracker) rollover() {
	today := t.now().Format("2006-01-02")
	if t.state.Date == today {
		return
	}
	if existing, err := t.loadState(today); err == nil {
		t.state = *existing
		return
	}
	t.state = DailyStats{Date: today}
}

func (t *DailyTracker) statePath(date string) string {
	return filepath.Join(t.dataDir, fmt.Sprintf("daily_%s.json", date))
}

func (t *DailyTracker) loadState(date string) (*DailyStats, error) {
	if t.dataDir == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(t.statePath(date))
	if err != nil {
		return nil, err
	}
	var s DailyStats
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *DailyTracker) saveState() error {
	if t.dataDir == "" {
		return nil
	}
	if err := os.MkdirAll(t.dataDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(t.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.statePath(t.state.Date), data, 0644)
}
