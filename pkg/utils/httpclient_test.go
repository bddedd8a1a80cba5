package utils

import (
	"testing"
	"time"
)

func TestHTTPClientDefaults(t *testing.T) {
	c := NewHTTPClient(HTTPClientConfig{})
	if c.Timeout != 15*time.Second {
		t.Fatalf("expected default request timeout, got %v", c.Timeout)
	}
}

func TestHTTPClientExplicitTimeout(t *testing.T) {
	c := NewHTTPClient(HTTPClientConfig{RequestTimeout: 3 * time.Second})
	if c.Timeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %v", c.Timeout)
	}
}
