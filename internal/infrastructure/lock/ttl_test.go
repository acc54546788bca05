package lock

import (
	"testing"
	"time"
)

func TestTTLForOutlivesRunTimeout(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		configured time.Duration
		timeout    time.Duration
		want       time.Duration
	}{
		{name: "default config untouched", configured: 10 * time.Minute, timeout: 5 * time.Minute, want: 10 * time.Minute},
		{name: "timeout above ttl", configured: 10 * time.Minute, timeout: 15 * time.Minute, want: 16 * time.Minute},
		{name: "timeout equal to ttl", configured: 5 * time.Minute, timeout: 5 * time.Minute, want: 6 * time.Minute},
		{name: "no timeout", configured: 10 * time.Minute, timeout: 0, want: 10 * time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TTLFor(tc.configured, tc.timeout); got != tc.want {
				t.Fatalf("TTLFor(%v, %v) = %v, want %v", tc.configured, tc.timeout, got, tc.want)
			}
		})
	}
}
