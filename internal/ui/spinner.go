package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner animates a loading indicator while a node or chain call is in
// flight. It writes to w (stderr in the CLI) so piped -o json output stays
// clean.
type Spinner struct {
	w      io.Writer
	frames []string
	msg    string

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// NewSpinner creates a new spinner with the given message.
func NewSpinner(w io.Writer, msg string) *Spinner {
	return &Spinner{
		w:      w,
		frames: spinnerFrames,
		msg:    msg,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start begins the spinner animation in a goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		t := time.NewTicker(spinnerInterval)
		defer t.Stop()
		for i := 0; ; i++ {
			frame := StyleChain.Render(s.frames[i%len(s.frames)])
			fmt.Fprintf(s.w, "\r%s  %s", frame, s.msg)
			select {
			case <-s.stop:
				fmt.Fprintf(s.w, "\r%-60s\r", "")
				return
			case <-t.C:
			}
		}
	}()
}

// Stop halts the spinner and waits for it to finish. Safe to call twice.
func (s *Spinner) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

// StopWithMsg halts the spinner and prints a final message.
func (s *Spinner) StopWithMsg(msg string) {
	s.Stop()
	fmt.Fprintln(s.w, msg)
}
