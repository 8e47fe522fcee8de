package security

import (
	"net/http/httptest"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name   string
		target string
		method string
		want   bool
	}{
		{"normal api call", "/api/transactions", "GET", false},
		{"wordpress probe", "/wp-admin/setup.php", "GET", true},
		{"path traversal in query", "/api/transactions?file=../../etc/passwd", "GET", true},
		{"trace method", "/api/transactions", "TRACE", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if got := d.DetectSuspiciousRequest(r); got != tt.want {
				t.Errorf("DetectSuspiciousRequest(%s %s) = %v, want %v", tt.method, tt.target, got, tt.want)
			}
			wantCount := int64(0)
			if tt.want {
				wantCount = 1
			}
			if d.SuspiciousRequests() != wantCount {
				t.Errorf("SuspiciousRequests() = %d, want %d", d.SuspiciousRequests(), wantCount)
			}
		})
	}
}

func TestExtractClientIPHonorsTrustedProxyOnly(t *testing.T) {
	d := NewDetector()

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "127.0.0.1:4321"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := d.ExtractClientIP(r); got != "203.0.113.7" {
		t.Errorf("trusted proxy: got %q, want 203.0.113.7", got)
	}

	// A public peer cannot spoof its address through the header.
	r.RemoteAddr = "198.51.100.9:4321"
	if got := d.ExtractClientIP(r); got != "198.51.100.9" {
		t.Errorf("untrusted peer: got %q, want 198.51.100.9", got)
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("AddTrustedProxy: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.50:999"
	r.Header.Set("X-Real-IP", "198.51.100.1")
	if got := d.ExtractClientIP(r); got != "198.51.100.1" {
		t.Errorf("got %q, want 198.51.100.1", got)
	}

	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Error("AddTrustedProxy accepted an invalid CIDR")
	}
}
