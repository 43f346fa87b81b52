//go:build unix

package sigcoord

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aidanjensen/goline/internal/dbg"
)

// notifySet is the full catchable set from spec §4.8: SIGINT, SIGTERM,
// SIGHUP, SIGQUIT, SIGALRM, SIGTSTP, SIGTTIN, SIGTTOU, SIGWINCH.
func notifySet() []os.Signal {
	return []os.Signal{
		syscall.SIGINT, syscall.SIGQUIT,
		syscall.SIGTERM, syscall.SIGHUP, syscall.SIGALRM,
		syscall.SIGTSTP, syscall.SIGTTIN, syscall.SIGTTOU,
		syscall.SIGWINCH,
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
	case syscall.SIGTSTP, syscall.SIGTTIN, syscall.SIGTTOU:
		return KindStop, s
	case syscall.SIGWINCH:
		return KindWinch, s
	default:
		dbg.Printf("sigcoord: unclassified signal %v\n", sig)
		return KindNone, 0
	}
}

func ignoreSIGTTOU() { signal.Ignore(syscall.SIGTTOU) }
func resetSIGTTOU()  { signal.Reset(syscall.SIGTTOU) }

func killSelf(sig syscall.Signal) error {
	return syscall.Kill(os.Getpid(), sig)
}
