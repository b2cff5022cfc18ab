package utils

import (
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	// Первые три запроса проходят
	for i := 0; i < 3; i++ {
		if !limiter.Allow("client") {
			t.Errorf("request %d should be allowed", i+1)
		}
	}

	// Четвертый запрос отклоняется
	if limiter.Allow("client") {
		t.Error("request over the limit should be rejected")
	}

	// Лимит считается отдельно для каждого ключа
	if !limiter.Allow("other") {
		t.Error("request from another client should be allowed")
	}
}

func TestRateLimiterWindow(t *testing.T) {
	limiter := NewRateLimiter(1, 10*time.Millisecond)

	if !limiter.Allow("client") {
		t.Error("first request should be allowed")
	}
	if limiter.Allow("client") {
		t.Error("second request inside the window should be rejected")
	}

	// После окончания окна лимит сбрасывается
	time.Sleep(20 * time.Millisecond)
	if !limiter.Allow("client") {
		t.Error("request after the window should be allowed")
	}
}

func TestRateLimiterReset(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)

	limiter.Allow("client")
	if limiter.GetRemaining("client") != 0 {
		t.Errorf("remaining should be 0, got %d", limiter.GetRemaining("client"))
	}

	limiter.Reset("client")
	if limiter.GetRemaining("client") != 1 {
		t.Errorf("remaining after reset should be 1, got %d", limiter.GetRemaining("client"))
	}
}
