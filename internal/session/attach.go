package session

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// Attach connects the current terminal to a pty session. It returns when
// the user presses Ctrl+D (detach) or the session's shell exits.
func (b *PtyBackend) Attach(name string) error {
	s, err := b.get(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	running := s.running
	ptmx := s.pty
	proc := s.cmd
	s.mu.Unlock()

	if !running || ptmx == nil {
		return fmt.Errorf("session %q is not running", name)
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	// Track terminal resizes while attached.
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	go func() {
		for range ch {
			_ = pty.InheritSize(os.Stdin, ptmx)
		}
	}()
	defer signal.Stop(ch)

	if err := pty.InheritSize(os.Stdin, ptmx); err != nil {
		return fmt.Errorf("set pty size: %w", err)
	}

	// Nudge the shell to redraw at the new size.
	if proc != nil && proc.Process != nil {
		proc.Process.Signal(syscall.SIGWINCH)
	}

	drawDetachHint()

	done := make(chan error, 1)
	detach := make(chan struct{})

	// Session output to stdout.
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := ptmx.Read(buf)
			if err != nil {
				done <- err
				return
			}
			if n > 0 {
				s.monitor.Touch()
				if _, err := os.Stdout.Write(buf[:n]); err != nil {
					done <- err
					return
				}
			}
		}
	}()

	// Stdin to session, intercepting Ctrl+D as the detach key.
	go func() {
		buf := make([]byte, 1024)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				done <- err
				return
			}
			filtered := make([]byte, 0, n)
			for i := 0; i < n; i++ {
				if buf[i] == 0x04 {
					close(detach)
					return
				}
				filtered = append(filtered, buf[i])
			}
			if len(filtered) > 0 {
				s.monitor.Touch()
				if _, err := ptmx.Write(filtered); err != nil {
					done <- err
					return
				}
			}
		}
	}()

	select {
	case <-detach:
		clearDetachHint()
		time.Sleep(50 * time.Millisecond)
		return nil
	case err := <-done:
		clearDetachHint()
		time.Sleep(50 * time.Millisecond)
		if err != nil && err != io.EOF {
			return err
		}
		return nil
	}
}

// drawDetachHint paints a reverse-video hint on the bottom screen line.
func drawDetachHint() {
	fmt.Print("\033[s")      // save cursor
	fmt.Print("\033[999;1H") // bottom of screen
	fmt.Print("\033[2K")     // clear line
	fmt.Print("\033[7m")     // reverse video
	fmt.Print(" Ctrl+D to detach ")
	fmt.Print("\033[0m")
	fmt.Print("\033[u") // restore cursor
}

func clearDetachHint() {
	fmt.Print("\033[s")
	fmt.Print("\033[999;1H")
	fmt.Print("\033[2K")
	fmt.Print("\033[u")
}
