package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sweeney/power-sensor/internal/config"
	"github.com/sweeney/power-sensor/internal/logic"
	"github.com/sweeney/power-sensor/internal/mqtt"
	"github.com/sweeney/power-sensor/internal/notify"
	"github.com/sweeney/power-sensor/internal/probe"
	"github.com/sweeney/power-sensor/internal/status"
	"github.com/sweeney/power-sensor/internal/store"
)

// newStartedDaemon builds a daemon the way run does: state comes from
// loadState against st, and ticks land every 3s after start.
func newStartedDaemon(st store.Store, start time.Time, p probe.Prober, n notify.Notifier) (*daemon, *mqtt.FakePublisher, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	state := loadState(context.Background(), st, start, log)

	pub := mqtt.NewFakePublisher()
	return &daemon{
		monitor:       logic.NewMonitor(logic.DefaultThreshold, state),
		prober:        p,
		store:         st,
		tracker:       status.NewTracker(start, state, status.Config{Threshold: logic.DefaultThreshold}, func() time.Time { return start }),
		notifier:      n,
		publisher:     pub,
		now:           fakeClock(start.Add(3*time.Second), 3*time.Second),
		log:           log,
		notifyTimeout: 2 * time.Second,
	}, pub, logs
}

func loadFile(t *testing.T, dir string) logic.OutageState {
	t.Helper()
	state, found, err := store.NewFileStore(dir).Load(context.Background())
	if err != nil || !found {
		t.Fatalf("load state: found=%v err=%v", found, err)
	}
	return state
}

// TestIntegrationFullFlow runs the outage scenario against a real file store.
func TestIntegrationFullFlow(t *testing.T) {
	dir := t.TempDir()
	notifier := notify.NewFakeNotifier()
	p := probe.NewFakeProber(concat(repeat(false, 10), repeat(true, 5))...)
	d, pub, _ := newStartedDaemon(store.NewFileStore(dir), boot, p, notifier)

	if err := runRunLoop(t, d, 5, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	state := loadFile(t, dir)
	if !state.Unpowered || !state.LastTransition.Equal(boot.Add(15*time.Second)) {
		t.Errorf("after loss: got %+v", state)
	}

	if err := runRunLoop(t, d, 10, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	state = loadFile(t, dir)
	if state.Unpowered || !state.LastTransition.Equal(boot.Add(45*time.Second)) {
		t.Errorf("after restoration: got %+v", state)
	}

	if len(notifier.Messages) != 2 {
		t.Fatalf("expected 2 notifications, got %v", notifier.Messages)
	}
	if notifier.Messages[0] != "🔴 Power is OFF\nIt was on for less than a minute" {
		t.Errorf("message 0: %q", notifier.Messages[0])
	}
	if notifier.Messages[1] != "🟢 Power is BACK\nIt was off for less than a minute" {
		t.Errorf("message 1: %q", notifier.Messages[1])
	}

	if len(pub.Transitions) != 2 {
		t.Fatalf("expected 2 published transitions, got %d", len(pub.Transitions))
	}
	if pub.Transitions[0].Direction != logic.DirectionLoss || pub.Transitions[1].Direction != logic.DirectionRestoration {
		t.Errorf("unexpected directions: %s, %s", pub.Transitions[0].Direction, pub.Transitions[1].Direction)
	}
}

// TestIntegrationRestartWhileUnpowered restarts the process mid-outage: the
// reloaded state must not announce anything until the line comes back.
func TestIntegrationRestartWhileUnpowered(t *testing.T) {
	dir := t.TempDir()

	first := notify.NewFakeNotifier()
	d, _, _ := newStartedDaemon(store.NewFileStore(dir), boot, probe.NewFakeProber(false), first)
	if err := runRunLoop(t, d, 5, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if len(first.Messages) != 1 {
		t.Fatalf("expected loss notification before restart, got %d", len(first.Messages))
	}

	// Two hours later the daemon comes back while the line is still down.
	restart := boot.Add(15*time.Second + 2*time.Hour)
	second := notify.NewFakeNotifier()
	p := probe.NewFakeProber(concat(repeat(false, 6), repeat(true, 5))...)
	d2, _, _ := newStartedDaemon(store.NewFileStore(dir), restart, p, second)

	if err := runRunLoop(t, d2, 6, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if len(second.Messages) != 0 {
		t.Fatalf("restart must not re-announce the outage, got %v", second.Messages)
	}

	if err := runRunLoop(t, d2, 5, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if len(second.Messages) != 1 {
		t.Fatalf("expected restoration notification, got %v", second.Messages)
	}
	if second.Messages[0] != "🟢 Power is BACK\nIt was off for 2 hours" {
		t.Errorf("unexpected message %q", second.Messages[0])
	}
}

// TestIntegrationRestartWithoutLastTime resumes from a state file that holds
// only the state key.
func TestIntegrationRestartWithoutLastTime(t *testing.T) {
	dir := t.TempDir()
	st := store.NewFileStore(dir)
	if err := os.WriteFile(st.Path(), []byte(`{"power":{"state":true}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	notifier := notify.NewFakeNotifier()
	d, _, _ := newStartedDaemon(st, boot, probe.NewFakeProber(false), notifier)
	if err := runRunLoop(t, d, 5, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(notifier.Messages) != 0 {
		t.Errorf("expected no duplicate loss alert, got %v", notifier.Messages)
	}
	state := loadFile(t, dir)
	if !state.Unpowered || !state.LastTransition.Equal(boot) {
		t.Errorf("expected unpowered since boot on disk, got %+v", state)
	}
}

// TestIntegrationPersistFailure points the store at a path that cannot be
// created: every transition is still announced and counted as a persist failure.
func TestIntegrationPersistFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	st := store.NewFileStore(filepath.Join(blocker, "state"))

	notifier := notify.NewFakeNotifier()
	p := probe.NewFakeProber(concat(repeat(false, 5), repeat(true, 5))...)
	d, pub, logs := newStartedDaemon(st, boot, p, notifier)

	if err := runRunLoop(t, d, 10, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(notifier.Messages) != 2 {
		t.Fatalf("expected both transitions announced, got %v", notifier.Messages)
	}
	if len(pub.Transitions) != 2 {
		t.Errorf("expected both transitions published, got %d", len(pub.Transitions))
	}
	if got := d.tracker.Snapshot().Failures.Persist; got != 2 {
		t.Errorf("persist failures: got %d, want 2", got)
	}
	// One from the startup seed, one per transition.
	if got := logs.FilterField(zap.String("event", "state_persist_failed")).Len(); got != 3 {
		t.Errorf("state_persist_failed logs: got %d, want 3", got)
	}
}

// TestIntegrationTelegramDelivery sends a real transition through the
// Telegram notifier against a local Bot API.
func TestIntegrationTelegramDelivery(t *testing.T) {
	var mu sync.Mutex
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		texts = append(texts, r.PostForm.Get("text"))
		mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.TelegramAPI = srv.URL
	cfg.TelegramToken = "123:abc"
	cfg.TelegramChatID = "-100"
	cfg.NotifyTimeout = 2 * time.Second

	n := newNotifier(cfg, zap.NewNop())
	d, _, _ := newStartedDaemon(store.NewFakeStore(), boot, probe.NewFakeProber(false), n)
	if err := runRunLoop(t, d, 5, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(texts) != 1 {
		t.Fatalf("expected 1 delivered message, got %d", len(texts))
	}
	if texts[0] != "🔴 Power is OFF\nIt was on for less than a minute" {
		t.Errorf("text arrived altered: %q", texts[0])
	}
}

// TestIntegrationPayloadFormat checks the MQTT payload produced by a real
// transition.
func TestIntegrationPayloadFormat(t *testing.T) {
	stored := logic.OutageState{Unpowered: false, LastTransition: boot.Add(-90 * time.Minute)}
	d, pub, _ := newStartedDaemon(store.NewFakeStoreWith(stored), boot, probe.NewFakeProber(false), notify.NewFakeNotifier())
	if err := runRunLoop(t, d, 5, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(pub.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(pub.Payloads))
	}

	var parsed mqtt.Payload
	if err := json.Unmarshal(pub.Payloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	p := parsed.Power
	if p.Event != "POWER_OFF" || p.State != "UNPOWERED" {
		t.Errorf("unexpected event/state: %s/%s", p.Event, p.State)
	}
	if p.Timestamp != "2026-01-01T12:00:15Z" {
		t.Errorf("timestamp: got %s", p.Timestamp)
	}
	if p.PreviousSince != "2026-01-01T10:30:00Z" {
		t.Errorf("previous_since: got %s", p.PreviousSince)
	}
	if p.Duration != "1 hours 30 minutes" {
		t.Errorf("duration: got %q", p.Duration)
	}
}
