package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

func debugCopy(dst io.Writer, src io.Reader, debug io.Writer, name string) {
	buf := make([]byte, 4096)
	for {
		nr, errR := src.Read(buf)
		if nr > 0 {
			fmt.Fprintf(debug, "%s: %q\n", name, buf[:nr])
			nw, errW := dst.Write(buf[:nr])
			if nw < 0 || nr < nw {
				fmt.Fprintf(debug, "%s: invalid write (nr=%d, nw=%d)\n", name, nr, nw)
			}
			if errW != nil {
				fmt.Fprintf(debug, "%s: write error: %+v\n", name, errW)
				break
			}
			if nr != nw {
				fmt.Fprintf(debug, "%s: short write (nr=%d, nw=%d)\n", name, nr, nw)
				break
			}
		}
		if errR != nil {
			if errR != io.EOF {
				fmt.Fprintf(debug, "%s: read error: %+v\n", name, errR)
			}
			break
		}
	}
}

// main drives an arbitrary command under a pty and logs every byte crossing
// it to debug.txt, defaulting to goline's own demo so a raw terminal
// session can be captured with no arguments at all. The child is also
// pointed at a second file via GOLINE_DEBUG, so internal/display's own
// redraw diagnostics can be read alongside the literal bytes that produced
// them without the two writers racing to create the same path.
func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"go", "run", "github.com/aidanjensen/goline/cmd/demo"}
	}

	c := exec.Command(args[0], args[1:]...)

	debug, err := os.Create("debug.txt")
	if err != nil {
		panic(err)
	}
	defer debug.Close()

	c.Env = append(os.Environ(), "GOLINE_DEBUG=goline-internal-debug.txt")

	// Start the command with a pty.
	ptmx, err := pty.Start(c)
	if err != nil {
		panic(err)
	}
	// Make sure to close the pty at the end.
	defer func() { _ = ptmx.Close() }() // Best effort.

	// Handle pty size.
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	go func() {
		for range ch {
			if err := pty.InheritSize(os.Stdin, ptmx); err != nil {
				log.Printf("error resizing pty: %s", err)
			}
		}
	}()
	ch <- syscall.SIGWINCH                        // Initial resize.
	defer func() { signal.Stop(ch); close(ch) }() // Cleanup signals when done.

	// Set stdin in raw mode.
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		panic(err)
	}
	defer func() { _ = term.Restore(int(os.Stdin.Fd()), oldState) }() // Best effort.

	// Copy stdin to the pty and the pty to stdout.
	// NOTE: The goroutine will keep reading until the next keystroke before returning.
	go func() {
		debugCopy(ptmx, os.Stdin, debug, "stdin")
	}()

	debugCopy(os.Stdout, ptmx, debug, "stdout")
}
