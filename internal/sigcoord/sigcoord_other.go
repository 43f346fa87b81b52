//go:build !unix

package sigcoord

import (
	"os"
	"syscall"

	"github.com/aidanjensen/goline/internal/dbg"
)

// notifySet is the portable subset available on platforms (Windows) whose
// syscall package defines no SIGWINCH, SIGTSTP, SIGTTIN, or SIGTTOU
// constants at all — resize is covered instead by sigcoord.New's go-tty
// fallback channel, and job-control-only signals have no equivalent here.
func notifySet() []os.Signal {
	return []os.Signal{
		syscall.SIGINT, syscall.SIGQUIT,
		syscall.SIGTERM, syscall.SIGHUP, syscall.SIGALRM,
	}
}

func classify(sig os.Signal) (Kind, syscall.Signal) {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return KindNone, 0
	}
	switch s {
	case syscall.SIGINT, syscall.SIGQUIT:
		return KindInterrupt, s
	case syscall.SIGTERM, syscall.SIGHUP, syscall.SIGALRM:
		return KindFatal, s
	default:
		dbg.Printf("sigcoord: unclassified signal %v\n", sig)
		return KindNone, 0
	}
}

// ignoreSIGTTOU/resetSIGTTOU are no-ops: there is no foreground process
// group / SIGTTOU concept to protect outside job-control terminals.
func ignoreSIGTTOU() {}
func resetSIGTTOU()  {}

func killSelf(sig syscall.Signal) error {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return err
	}
	return p.Signal(sig)
}
