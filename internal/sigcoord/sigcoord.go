// Package sigcoord coordinates OS signal delivery with the line editor
// (component C11). Signal handlers never touch editor state directly; they
// set flags that are drained at safe points, the same flag-polling approach
// spec.md §5 and §9 require in place of setjmp/longjmp-style recovery.
package sigcoord

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/mattn/go-tty"
)

// Kind identifies which class of signal was observed.
type Kind int32

const (
	// KindNone means no signal is pending.
	KindNone Kind = iota
	// KindWinch means the terminal size changed.
	KindWinch
	// KindInterrupt covers SIGINT and SIGQUIT: discard the current line.
	KindInterrupt
	// KindFatal covers SIGTERM/SIGHUP/SIGALRM: clean up and re-raise.
	KindFatal
	// KindStop covers SIGTSTP/SIGTTIN/SIGTTOU: restore mode, stop, resume.
	KindStop
)

// pack/unpack combine a Kind with the concrete signal that produced it into
// a single int32 so both survive the atomic flag's compare-and-swap: Kind
// in the high 16 bits, the syscall.Signal number in the low 16. Spec
// §4.8(e) requires re-raising "the same signal to itself", so the class
// (KindFatal/KindStop) alone is not enough information to carry through to
// the caller — the specific signal number has to come along with it.
func pack(k Kind, sig syscall.Signal) int32 {
	return int32(k)<<16 | int32(uint16(sig))
}

func unpack(v int32) (Kind, syscall.Signal) {
	return Kind(v >> 16), syscall.Signal(int16(uint16(v)))
}

// Coordinator owns the process-wide signal flag and the goroutines feeding
// it. Exactly one Coordinator should be active per ReadLine call.
type Coordinator struct {
	flag int32 // atomic pack(Kind, syscall.Signal), drained by CheckSignals

	sigCh  chan os.Signal
	winch  <-chan struct{}
	ttyDev *tty.TTY
	done   chan struct{}

	// CleanupOnSignal, if set, is invoked exactly once per fatal/interrupt
	// signal and then cleared, matching spec §5's cleanup-on-signal hook.
	CleanupOnSignal func()
}

// New installs handlers for the platform's catchable subset of spec §4.8's
// signal set and begins feeding Kind values into the coordinator's flag.
// The exact set notified is platform-specific (sigcoord_unix.go /
// sigcoord_other.go): Windows's syscall package has no SIGWINCH, SIGTSTP,
// SIGTTIN, or SIGTTOU constants to pass to signal.Notify at all.
func New() *Coordinator {
	c := &Coordinator{done: make(chan struct{})}
	c.sigCh = make(chan os.Signal, 8)
	signal.Notify(c.sigCh, notifySet()...)
	if dev, err := tty.Open(); err == nil {
		// go-tty's resize channel is a second, ioctl-polling source of
		// resize events: some terminal multiplexers swallow SIGWINCH
		// delivery to background process groups, and on platforms with no
		// SIGWINCH constant at all it is the only source of resize events.
		c.ttyDev = dev
		c.winch = dev.SIGWINCH()
	}

	go c.pump()
	return c
}

func (c *Coordinator) pump() {
	for {
		select {
		case sig, ok := <-c.sigCh:
			if !ok {
				return
			}
			k, s := classify(sig)
			c.record(k, s)
		case _, ok := <-c.winch:
			if !ok {
				return
			}
			c.record(KindWinch, 0)
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) record(k Kind, sig syscall.Signal) {
	// SIGWINCH never overwrites a more urgent pending signal; otherwise last
	// writer wins, which is fine since CheckSignals drains promptly.
	for {
		old := atomic.LoadInt32(&c.flag)
		oldKind, _ := unpack(old)
		if oldKind != KindNone && k == KindWinch {
			return
		}
		if atomic.CompareAndSwapInt32(&c.flag, old, pack(k, sig)) {
			return
		}
	}
}

// CheckSignals is the RL_CHECK_SIGNALS safe point from spec §5: it drains
// the pending flag (if any) and returns it, along with the concrete signal
// that produced it (0 for KindNone/KindWinch, which have none), so the
// caller can act. It must be polled between command dispatch and
// redisplay.
func (c *Coordinator) CheckSignals() (Kind, syscall.Signal) {
	return unpack(atomic.SwapInt32(&c.flag, pack(KindNone, 0)))
}

// RunCleanup invokes and clears CleanupOnSignal exactly once.
func (c *Coordinator) RunCleanup() {
	if c.CleanupOnSignal == nil {
		return
	}
	fn := c.CleanupOnSignal
	c.CleanupOnSignal = nil
	fn()
}

// Reraise blocks SIGTTOU (so a concurrent terminal-mode restore is not
// interrupted), restores the terminal via restoreFn, re-raises sig to the
// process with the default disposition, and returns — matching spec §4.8's
// fatal-signal policy (a)-(f). On platforms without SIGTTOU this degrades
// to skipping that block/release step, since there is no terminal
// foreground process group to protect.
func Reraise(sig syscall.Signal, restoreFn func() error) {
	ignoreSIGTTOU()
	if restoreFn != nil {
		_ = restoreFn()
	}
	resetSIGTTOU()
	signal.Reset(sig)
	_ = killSelf(sig)
}

// Stop tears down the coordinator's goroutines and signal registration.
func (c *Coordinator) Stop() {
	signal.Stop(c.sigCh)
	close(c.sigCh)
	close(c.done)
	if c.ttyDev != nil {
		_ = c.ttyDev.Close()
	}
}
