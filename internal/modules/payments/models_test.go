package payments_test

import (
	"testing"
	"time"

	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/payments"
)

func TestIsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name   string
		expiry *time.Time
		want   bool
	}{
		{"no expiry", nil, false},
		{"future expiry", &future, false},
		{"past expiry", &past, true},
	}
	for _, tc := range cases {
		p := payments.Payment{ExpiryDate: tc.expiry}
		if got := p.IsExpired(now); got != tc.want {
			t.Fatalf("%s: IsExpired = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanRetry(t *testing.T) {
	cases := []struct {
		status string
		count  int
		want   bool
	}{
		{payments.StatusFailed, 0, true},
		{payments.StatusFailed, 2, true},
		{payments.StatusFailed, 3, false},
		{payments.StatusCancelled, 1, true},
		{payments.StatusCancelled, 3, false},
		{payments.StatusPending, 0, false},
		{payments.StatusCompleted, 0, false},
		{payments.StatusRefunded, 0, false},
	}
	for _, tc := range cases {
		p := payments.Payment{Status: tc.status, RetryCount: tc.count}
		if got := p.CanRetry(); got != tc.want {
			t.Fatalf("status=%s retry=%d: CanRetry = %v, want %v", tc.status, tc.count, got, tc.want)
		}
	}
}
