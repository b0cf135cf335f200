package ratelimiter

import (
	"testing"
	"time"
)

func TestMapLimiterBurstThenRefill(t *testing.T) {
	l := New(1, 2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !l.Allow("a", now) || !l.Allow("a", now) {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if l.Allow("a", now) {
		t.Fatal("expected third call within the same instant to be limited")
	}
	if !l.Allow("b", now) {
		t.Fatal("keys must not share buckets")
	}
	if !l.Allow("a", now.Add(time.Second)) {
		t.Fatal("expected a token after one second")
	}
}

func TestMapLimiterSweepsIdleKeys(t *testing.T) {
	l := New(10, 10, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Allow("old", now)
	l.Allow("fresh", now.Add(2*time.Minute))
	l.Sweep(now.Add(2 * time.Minute))
	if got := l.Len(); got != 1 {
		t.Fatalf("unexpected bucket count: got=%d want=1", got)
	}
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	var l *MapLimiter = New(0, 1, 0)
	if l != nil {
		t.Fatal("expected nil limiter for non-positive rps")
	}
	if !l.Allow("a", time.Now()) {
		t.Fatal("nil limiter must allow")
	}
	if l.Len() != 0 {
		t.Fatal("nil limiter has no buckets")
	}
}
