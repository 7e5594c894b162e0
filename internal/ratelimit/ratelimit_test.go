package ratelimit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestUnlimited(t *testing.T) {
	ok, err := Unlimited{}.Allow(context.Background(), "1.2.3.4")
	if !ok || err != nil {
		t.Fatalf("Unlimited.Allow = %v, %v", ok, err)
	}
}

func TestRedisLimiterWindow(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := NewRedisClient(addr, os.Getenv("REDIS_PASSWORD"))
	defer rdb.Close()

	l := NewRedisLimiter(rdb, 2, time.Minute)
	l.prefix = fmt.Sprintf("test:%d:", time.Now().UnixNano())
	frozen := time.Now()
	l.now = func() time.Time { return frozen }

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "client")
		if err != nil || !ok {
			t.Fatalf("call %d rejected: %v", i, err)
		}
	}
	if ok, _ := l.Allow(ctx, "client"); ok {
		t.Fatal("third call in window allowed")
	}
	if ok, _ := l.Allow(ctx, "other"); !ok {
		t.Fatal("separate key shares the window")
	}
	l.now = func() time.Time { return frozen.Add(time.Minute) }
	if ok, _ := l.Allow(ctx, "client"); !ok {
		t.Fatal("next window still limited")
	}
}
