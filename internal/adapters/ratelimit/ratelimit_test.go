package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemory_FixedWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemory(3, time.Hour)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _ := m.Allow(ctx, "otp_rate_limit:login:+5491100000000")
		if !ok {
			t.Fatalf("hit %d should be allowed", i+1)
		}
	}
	if ok, _ := m.Allow(ctx, "otp_rate_limit:login:+5491100000000"); ok {
		t.Fatalf("4th hit should be limited")
	}

	// otra clave no comparte cupo
	if ok, _ := m.Allow(ctx, "otp_rate_limit:pet_access:+5491100000000"); !ok {
		t.Fatalf("different key should be allowed")
	}

	now = now.Add(time.Hour)
	if ok, _ := m.Allow(ctx, "otp_rate_limit:login:+5491100000000"); !ok {
		t.Fatalf("new window should be allowed")
	}
}

func TestRedis_FixedWindow(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping test: TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	client, err := Connect(ctx, addr, os.Getenv("TEST_REDIS_PASSWORD"), 0)
	if err != nil {
		t.Skipf("Skipping test: redis not available: %v", err)
	}
	defer client.Close()

	key := "test_rate_limit:" + uuid.NewString()
	defer client.Del(ctx, key)

	r := NewRedis(client, 2, time.Minute)
	for i := 0; i < 2; i++ {
		ok, err := r.Allow(ctx, key)
		if err != nil || !ok {
			t.Fatalf("hit %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	ok, err := r.Allow(ctx, key)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatalf("3rd hit should be limited")
	}

	ttl, err := client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		t.Fatalf("expected ttl on key, got %v err=%v", ttl, err)
	}
}
