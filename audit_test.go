package goEstate

import (
	"bytes"
	"context"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func enableAudit(cfg *Config) {
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 32
	cfg.Audit.DropIfFull = false
}

func nextEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("expected audit event to be received")
	}
	return AuditEvent{}
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Audit.Enabled = false
	}, sink)

	addr := env.fake.AddAccount("right-password")
	_, _ = env.engine.Login(WithClientIP(context.Background(), "203.0.113.1"), addr.Hex(), "wrong-password")
	time.Sleep(30 * time.Millisecond)

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditLoginFailureCarriesFields(t *testing.T) {
	sink := NewChannelSink(8)
	env := newTestEnv(t, enableAudit, sink)

	addr := env.fake.AddAccount("right-password")
	ctx := WithRequestID(WithClientIP(context.Background(), "198.51.100.33"), "req-1")
	_, _ = env.engine.Login(ctx, addr.Hex(), "super-secret-password")

	ev := nextEvent(t, sink)
	if ev.EventType != auditEventLoginFailure {
		t.Fatalf("expected %s, got %s", auditEventLoginFailure, ev.EventType)
	}
	if ev.Success {
		t.Fatal("failed login must not be audited as success")
	}
	if ev.IP != "198.51.100.33" {
		t.Fatalf("expected IP 198.51.100.33, got %q", ev.IP)
	}
	if ev.RequestID != "req-1" {
		t.Fatalf("expected request id req-1, got %q", ev.RequestID)
	}
	if ev.Address != addr.Hex() {
		t.Fatalf("expected address %s, got %q", addr.Hex(), ev.Address)
	}
	if ev.Error != string(auditErrInvalidCredentials) {
		t.Fatalf("expected error code %s, got %q", auditErrInvalidCredentials, ev.Error)
	}
}

func TestAuditTransactionRecordsMethodAndHash(t *testing.T) {
	sink := NewChannelSink(8)
	env := newTestEnv(t, enableAudit, sink)
	ctx := context.Background()

	addr := env.fake.AddAccount("pw-buyer")
	res := mustLogin(t, env.engine, ctx, addr, "pw-buyer")
	if ev := nextEvent(t, sink); ev.EventType != auditEventLoginSuccess {
		t.Fatalf("expected login success first, got %s", ev.EventType)
	}

	tx, err := env.engine.BuyEstate(ctx, res.Credential, big.NewInt(1), big.NewInt(5))
	if err != nil {
		t.Fatalf("buy estate: %v", err)
	}

	ev := nextEvent(t, sink)
	if ev.EventType != auditEventTransaction || !ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.SessionID != res.Credential.SessionID {
		t.Fatalf("expected session %s, got %s", res.Credential.SessionID, ev.SessionID)
	}
	if ev.Metadata["method"] != "buy_estate" {
		t.Fatalf("expected method buy_estate, got %q", ev.Metadata["method"])
	}
	if ev.Metadata["tx_hash"] != tx.Hash.Hex() {
		t.Fatalf("expected tx hash %s, got %q", tx.Hash.Hex(), ev.Metadata["tx_hash"])
	}
}

func TestAuditBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.close()
	}()

	dispatcher.emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	dispatcher.emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.droppedCount() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestAuditBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.close()
	}()

	dispatcher.emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestAuditBlockingEmitHonoursContext(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.close()
	}()

	dispatcher.emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.emit(context.Background(), AuditEvent{EventType: "e2"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	dispatcher.emit(ctx, AuditEvent{EventType: "e3"})

	if dispatcher.droppedCount() != 1 {
		t.Fatalf("expected cancelled emit to count as a drop, got %d", dispatcher.droppedCount())
	}
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: auditEventLoginSuccess,
		Address:   "0x0000000000000000000000000000000000001001",
		IP:        "127.0.0.1",
		Success:   true,
	}
	sink.Emit(context.Background(), event)

	if !buf.Contains("login_success") {
		t.Fatal("expected JSON log line to contain event type")
	}
	if !buf.Contains(`"address":"0x0000000000000000000000000000000000001001"`) {
		t.Fatal("expected JSON log line to contain address")
	}
	if !buf.Contains("\n") {
		t.Fatal("expected newline-terminated record")
	}
}

func TestAuditSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewSlogSink(logger)

	sink.Emit(context.Background(), AuditEvent{EventType: auditEventLogoutSession, Success: true})
	sink.Emit(context.Background(), AuditEvent{
		EventType: auditEventLoginFailure,
		Error:     string(auditErrInvalidCredentials),
		Metadata:  map[string]string{"scope": "login"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"level":"INFO"`) || !strings.Contains(lines[0], auditEventLogoutSession) {
		t.Fatalf("unexpected success record %s", lines[0])
	}
	if !strings.Contains(lines[1], `"level":"WARN"`) || !strings.Contains(lines[1], `"meta.scope":"login"`) {
		t.Fatalf("unexpected failure record %s", lines[1])
	}
}

func TestAuditDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{})

	dispatcher.emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.close()
	dispatcher.close()
	dispatcher.emit(context.Background(), AuditEvent{EventType: "e2"})
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	sink := NewChannelSink(32)
	env := newTestEnv(t, enableAudit, sink)
	ctx := context.Background()

	res, err := env.engine.Register(ctx, testPassword)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := env.engine.Logout(ctx, res.Credential); err != nil {
		t.Fatalf("logout: %v", err)
	}

	secretNeedles := []string{testPassword, res.Token}

	events := make([]AuditEvent, 0, 8)
	timeout := time.After(2 * time.Second)
collectLoop:
	for len(events) < 3 {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			break collectLoop
		}
	}

	if len(events) == 0 {
		t.Fatal("expected at least one audit event")
	}

	for _, ev := range events {
		for _, needle := range secretNeedles {
			if strings.Contains(ev.Error, needle) {
				t.Fatalf("sensitive value leaked in audit error field: %q", needle)
			}
			for k, v := range ev.Metadata {
				if strings.Contains(k, needle) || strings.Contains(v, needle) {
					t.Fatalf("sensitive value leaked in audit metadata: %q", needle)
				}
			}
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) Contains(v string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Contains(b.buf, []byte(v))
}
