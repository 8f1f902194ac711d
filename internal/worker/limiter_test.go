package worker

import (
	"context"
	"testing"
	"time"
)

func TestNewLimiter_BurstFloor(t *testing.T) {
	if l := NewLimiter(10, -1); l.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l.defaultBurst)
	}
}

func TestLimiter_DomainsAreIndependent(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("http://example.com/menu") {
		t.Error("first request should pass")
	}
	if limiter.Allow("http://example.com/menu") {
		t.Error("second request to same domain should be throttled")
	}
	if !limiter.Allow("http://other.com") {
		t.Error("fresh domain should have its own bucket")
	}
}

func TestLimiter_SetDomainRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	limiter.SetDomainRate("slow.example", 0.1, 1)

	if !limiter.Allow("http://slow.example/") {
		t.Error("burst token should pass")
	}
	if limiter.Allow("http://slow.example/") {
		t.Error("overridden domain should be throttled")
	}
	if !limiter.Allow("http://fast.example/") {
		t.Error("default-rate domain should pass")
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)

	start := time.Now()
	if err := limiter.WaitWithDelay(context.Background(), "http://example.com", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", elapsed)
	}
}

func TestExtractDomain(t *testing.T) {
	domain, err := extractDomain("http://example.com/foo")
	if err != nil {
		t.Fatalf("extractDomain: %v", err)
	}
	if domain != "example.com" {
		t.Errorf("expected example.com, got %s", domain)
	}
	if _, err := extractDomain("::invalid"); err == nil {
		t.Error("expected error for invalid URL")
	}
}
