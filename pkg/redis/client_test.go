package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestPushAndPopBlockingIsFIFO(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.QueueKey("mail")

	for _, payload := range []string{"first", "second"} {
		if err := client.Push(ctx, key, []byte(payload)); err != nil {
			t.Fatalf("push failed: %v", err)
		}
	}

	if n, err := client.Len(ctx, key); err != nil || n != 2 {
		t.Fatalf("expected length 2, got %d err=%v", n, err)
	}

	got, err := client.PopBlocking(ctx, key, time.Second)
	if err != nil {
		t.Fatalf("pop failed: %v", err)
	}
	if string(got) != "first" {
		t.Fatalf("expected oldest payload first, got %q", got)
	}
	if mock.lastTimeout != time.Second {
		t.Fatalf("expected timeout to be forwarded, got %v", mock.lastTimeout)
	}

	got, err = client.PopBlocking(ctx, key, time.Second)
	if err != nil || string(got) != "second" {
		t.Fatalf("expected second payload, got %q err=%v", got, err)
	}

	if _, err := client.PopBlocking(ctx, key, time.Second); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("expected ErrQueueEmpty, got %v", err)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	if err := client.Ping(ctx); err == nil {
		t.Fatal("expected ping error")
	}
	if err := client.Push(ctx, "k", nil); err == nil {
		t.Fatal("expected push error")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on nil raw should be a no-op, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.QueueKey("outbound"); got != "sf:queue:outbound" {
		t.Fatalf("unexpected queue key %s", got)
	}
	if got := client.QueueKey(" "); got != "sf:queue" {
		t.Fatalf("blank names should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 || opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}
}

type mockCmdable struct {
	lists       map[string][]string
	lastTimeout time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{lists: make(map[string][]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) LPush(ctx context.Context, key string, values ...any) *redis.IntCmd {
	for _, v := range values {
		var s string
		switch typed := v.(type) {
		case []byte:
			s = string(typed)
		case string:
			s = typed
		}
		m.lists[key] = append([]string{s}, m.lists[key]...)
	}
	return redis.NewIntResult(int64(len(m.lists[key])), nil)
}

func (m *mockCmdable) BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	m.lastTimeout = timeout
	for _, key := range keys {
		list := m.lists[key]
		if len(list) == 0 {
			continue
		}
		last := list[len(list)-1]
		m.lists[key] = list[:len(list)-1]
		return redis.NewStringSliceResult([]string{key, last}, nil)
	}
	return redis.NewStringSliceResult(nil, redis.Nil)
}

func (m *mockCmdable) LLen(ctx context.Context, key string) *redis.IntCmd {
	return redis.NewIntResult(int64(len(m.lists[key])), nil)
}
