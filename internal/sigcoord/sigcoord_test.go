package sigcoord

import (
	"syscall"
	"testing"
)

func TestRecordWinchDoesNotOverwritePendingSignal(t *testing.T) {
	c := &Coordinator{}
	c.record(KindInterrupt, syscall.SIGINT)
	c.record(KindWinch, 0)
	if got, sig := c.CheckSignals(); got != KindInterrupt || sig != syscall.SIGINT {
		t.Fatalf("CheckSignals() = %v,%v, want KindInterrupt,SIGINT", got, sig)
	}
}

func TestCheckSignalsDrainsFlag(t *testing.T) {
	c := &Coordinator{}
	c.record(KindFatal, syscall.SIGHUP)
	if got, sig := c.CheckSignals(); got != KindFatal || sig != syscall.SIGHUP {
		t.Fatalf("first CheckSignals() = %v,%v, want KindFatal,SIGHUP", got, sig)
	}
	if got, sig := c.CheckSignals(); got != KindNone || sig != 0 {
		t.Fatalf("second CheckSignals() = %v,%v, want KindNone,0", got, sig)
	}
}

func TestCheckSignalsRoundTripsConcreteSignal(t *testing.T) {
	c := &Coordinator{}
	c.record(KindStop, syscall.SIGTTIN)
	got, sig := c.CheckSignals()
	if got != KindStop || sig != syscall.SIGTTIN {
		t.Fatalf("CheckSignals() = %v,%v, want KindStop,SIGTTIN (not coalesced to SIGTSTP)", got, sig)
	}
}

func TestRunCleanupInvokedOnce(t *testing.T) {
	c := &Coordinator{}
	calls := 0
	c.CleanupOnSignal = func() { calls++ }
	c.RunCleanup()
	c.RunCleanup()
	if calls != 1 {
		t.Fatalf("cleanup invoked %d times, want 1", calls)
	}
}
