package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cryptoscan/pkg/model"
)

type fakeScanner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeScanner) Scan(ctx context.Context, symbols []string) (*model.ScanResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	alert := model.Alert{Signal: model.Signal{Symbol: symbols[0], Quality: 70}}
	return &model.ScanResult{
		Scanned:  len(symbols),
		Detected: []model.Signal{alert.Signal, alert.Signal},
		Best:     []model.Alert{alert},
		Admitted: []model.Alert{alert},
	}, nil
}

func (f *fakeScanner) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDispatcher struct {
	got []model.Alert
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, alerts []model.Alert) (int, error) {
	f.got = append(f.got, alerts...)
	return len(alerts), nil
}

func TestRunCycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Symbols = []string{"BTCUSDT"}
	cfg.DataDir = t.TempDir()

	s := &fakeScanner{}
	disp := &fakeDispatcher{}
	d := NewDaemon(cfg, s, disp, nil, nil, zerolog.Nop())

	if err := d.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if len(disp.got) != 1 || disp.got[0].Symbol() != "BTCUSDT" {
		t.Errorf("Expected 1 dispatched BTCUSDT alert, got %v", disp.got)
	}
	last, scans := d.results.Last()
	if last == nil || scans != 1 {
		t.Errorf("Expected published result, got %v after %d scans", last, scans)
	}

	stats := d.Tracker().Stats()
	if stats.Cycles != 1 || stats.Detected != 2 || stats.Admitted != 1 || stats.Sent != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestRunCycleScanFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Symbols = []string{"BTCUSDT"}
	cfg.DataDir = ""

	d := NewDaemon(cfg, &fakeScanner{err: errors.New("boom")}, nil, nil, nil, zerolog.Nop())
	if err := d.RunCycle(context.Background()); err == nil {
		t.Fatal("Expected error")
	}
	stats := d.Tracker().Stats()
	if stats.Failures != 1 || stats.LastError != "boom" {
		t.Errorf("Expected failure recorded, got %+v", stats)
	}
	if last, _ := d.results.Last(); last != nil {
		t.Error("Expected no published result")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Symbols = []string{"ETHUSDT"}
	cfg.Schedule = "@every 1h"
	cfg.DataDir = ""

	s := &fakeScanner{}
	d := NewDaemon(cfg, s, nil, nil, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for s.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
	if s.Calls() != 1 {
		t.Errorf("Expected 1 immediate scan, got %d", s.Calls())
	}
}

func TestRunRejectsBadSchedule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Schedule = "not a spec"
	d := NewDaemon(cfg, &fakeScanner{}, nil, nil, nil, zerolog.Nop())
	if err := d.Run(context.Background()); err == nil {
		t.Error("Expected schedule error")
	}
}

func TestTrackerRestoresSameDay(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first := NewDailyTracker(dir)
	first.now = func() time.Time { return day }
	res := &model.ScanResult{Scanned: 4, Detected: make([]model.Signal, 3)}
	if err := first.RecordCycle(res, 1); err != nil {
		t.Fatalf("RecordCycle failed: %v", err)
	}

	second := NewDailyTracker(dir)
	second.now = func() time.Time { return day.Add(time.Hour) }
	if err := second.RecordCycle(res, 0); err != nil {
		t.Fatalf("RecordCycle failed: %v", err)
	}
	stats := second.Stats()
	if stats.Cycles != 2 || stats.Scanned != 8 || stats.Detected != 6 || stats.Sent != 1 {
		t.Errorf("Expected restored counters, got %+v", stats)
	}

	second.now = func() time.Time { return day.Add(24 * time.Hour) }
	if err := second.RecordCycle(res, 0); err != nil {
		t.Fatalf("RecordCycle failed: %v", err)
	}
	if stats := second.Stats(); stats.Date != "2024-05-02" || stats.Cycles != 1 {
		t.Errorf("Expected fresh day, got %+v", stats)
	}
}
