package guard

import (
	"fmt"
	"testing"
	"time"
)

func TestFailureLedger_BlocksAtThreshold(t *testing.T) {
	ledger := NewFailureLedger(3, 5*time.Minute, 100)

	if ledger.Blocked("192.0.2.1") {
		t.Error("Unknown IP should not be blocked")
	}

	ledger.Record("192.0.2.1")
	ledger.Record("192.0.2.1")

	if ledger.Blocked("192.0.2.1") {
		t.Error("IP below threshold should not be blocked")
	}

	ledger.Record("192.0.2.1")

	if !ledger.Blocked("192.0.2.1") {
		t.Error("IP at threshold should be blocked")
	}
}

func TestFailureLedger_IPsAreIndependent(t *testing.T) {
	ledger := NewFailureLedger(1, 5*time.Minute, 100)

	ledger.Record("192.0.2.1")

	if ledger.Blocked("192.0.2.2") {
		t.Error("Other IPs should be unaffected")
	}
}

func TestFailureLedger_WindowExpiry(t *testing.T) {
	ledger := NewFailureLedger(2, 5*time.Minute, 100)

	// Inject failures older than the window directly.
	old := time.Now().Add(-6 * time.Minute)
	ledger.failures.Add("192.0.2.1", []time.Time{old, old})

	if ledger.Blocked("192.0.2.1") {
		t.Error("Failures outside the window should not count")
	}

	if ledger.TrackedIPs() != 0 {
		t.Errorf("Fully expired IP should be dropped, tracking %d", ledger.TrackedIPs())
	}
}

func TestFailureLedger_BoundedTracking(t *testing.T) {
	ledger := NewFailureLedger(10, 5*time.Minute, 50)

	for i := 0; i < 100; i++ {
		ledger.Record(fmt.Sprintf("192.0.2.%d", i))
	}

	if ledger.TrackedIPs() > 50 {
		t.Errorf("Ledger should track at most 50 IPs, got %d", ledger.TrackedIPs())
	}
}
