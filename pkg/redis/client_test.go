package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/memberclub-backend/pkg/config"
)

func TestFixedWindow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	win, err := client.FixedWindow(ctx, "cart_mutation:member-1", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !win.Allowed || win.Count != 1 || win.ResetIn != time.Minute {
		t.Fatalf("unexpected first window %+v", win)
	}
	if mock.ttl["mc:rate_limit:cart_mutation:member-1"] != time.Minute {
		t.Fatalf("expected ttl started on first hit, got %v", mock.ttl)
	}

	mock.ttl["mc:rate_limit:cart_mutation:member-1"] = 20 * time.Second
	win, err = client.FixedWindow(ctx, "cart_mutation:member-1", 2, time.Minute)
	if err != nil || !win.Allowed || win.Count != 2 {
		t.Fatalf("unexpected second window %+v err=%v", win, err)
	}
	if win.ResetIn != 20*time.Second {
		t.Fatalf("ttl must not restart inside a window, got %v", win.ResetIn)
	}

	win, err = client.FixedWindow(ctx, "cart_mutation:member-1", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if win.Allowed {
		t.Fatalf("expected limit reached")
	}

	if _, err := client.FixedWindow(ctx, "x", 1, 0); err == nil {
		t.Fatalf("expected error for zero window")
	}
}

func TestCompareAndDelete(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	mock.data["lock"] = "owner-a"

	deleted, err := client.CompareAndDelete(ctx, "lock", "owner-b")
	if err != nil || deleted {
		t.Fatalf("foreign owner must not delete, deleted=%v err=%v", deleted, err)
	}
	deleted, err = client.CompareAndDelete(ctx, "lock", "owner-a")
	if err != nil || !deleted {
		t.Fatalf("owner should delete, deleted=%v err=%v", deleted, err)
	}
	if _, ok := mock.data["lock"]; ok {
		t.Fatalf("expected key removed")
	}
}

func TestSetXXOnlyOverwrites(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetXX(ctx, "k", "v1", time.Hour)
	if err != nil || ok {
		t.Fatalf("SetXX on a missing key must not write, ok=%v err=%v", ok, err)
	}
	if _, err := client.SetNX(ctx, "k", "claim", time.Minute); err != nil {
		t.Fatalf("setnx: %v", err)
	}
	ok, err = client.SetXX(ctx, "k", "done", time.Hour)
	if err != nil || !ok {
		t.Fatalf("SetXX should overwrite, ok=%v err=%v", ok, err)
	}
	if v, _ := client.Get(ctx, "k"); v != "done" {
		t.Fatalf("expected overwritten value, got %q", v)
	}
}

func TestIdempotencyRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	key := client.IdempotencyKey("member|POST|/api/v1/checkout", "abc")

	if _, err := client.Get(ctx, key); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil before write, got %v", err)
	}
	stored, err := client.SetNX(ctx, key, "first", time.Hour)
	if err != nil || !stored {
		t.Fatalf("expected first SetNX to store, stored=%v err=%v", stored, err)
	}
	stored, err = client.SetNX(ctx, key, "second", time.Hour)
	if err != nil || stored {
		t.Fatalf("expected second SetNX to be ignored, stored=%v err=%v", stored, err)
	}
	value, err := client.Get(ctx, key)
	if err != nil || value != "first" {
		t.Fatalf("expected first value, got %q err=%v", value, err)
	}
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := client.Get(ctx, key); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "mc:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey(" scope "); got != "mc:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.IdempotencyKey("scope", ""); got != "mc:idempotency:scope" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestUninitializedClient(t *testing.T) {
	var client *Client
	if err := client.Ping(context.Background()); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without endpoint")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:pw@localhost:6380/2", PoolSize: 7})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 || opts.Password != "pw" || opts.PoolSize != 7 {
		t.Fatalf("unexpected options %+v", opts)
	}
	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.DB != 3 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}
}

type mockCmdable struct {
	data map[string]string
	incr map[string]int64
	ttl  map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
		ttl:  make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) SetXX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; !exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Eval emulates the two scripts the client sends.
func (m *mockCmdable) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	key := keys[0]
	switch script {
	case fixedWindowScript:
		m.incr[key]++
		if m.incr[key] == 1 {
			m.ttl[key] = time.Duration(args[0].(int64)) * time.Millisecond
		}
		return redis.NewCmdResult([]any{m.incr[key], m.ttl[key].Milliseconds()}, nil)
	case compareAndDeleteScript:
		if m.data[key] == args[0] {
			delete(m.data, key)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(nil, errors.New("unexpected script"))
}
