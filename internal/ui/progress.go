package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"meshdrop/internal/quickstart"
)

// Spinner represents an animated spinner for long operations
type Spinner struct {
	out      io.Writer
	frames   []string
	current  int
	message  string
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	started  bool
	stopped  bool
	mu       sync.Mutex
}

// NewSpinner creates a new spinner drawing to out
func NewSpinner(out io.Writer, message string) *Spinner {
	return &Spinner{
		out:      out,
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message:  message,
		interval: 100 * time.Millisecond,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.out, "\r\033[K%s %s", ColorProgress(s.frames[s.current]), s.message)
				s.current = (s.current + 1) % len(s.frames)
				s.mu.Unlock()
			}
		}
	}()
}

// Stop stops the spinner and prints the final status. It is safe to call
// more than once.
func (s *Spinner) Stop(success bool, message string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	s.mu.Unlock()

	close(s.stop)
	if started {
		<-s.done
		fmt.Fprint(s.out, "\r\033[K")
	}

	if message == "" {
		return
	}
	if success {
		fmt.Fprintf(s.out, "%s %s\n", ColorSuccess("✓"), message)
	} else {
		fmt.Fprintf(s.out, "%s %s\n", ColorError("✗"), message)
	}
}

// UpdateMessage updates the spinner message
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// StageMessage is the spinner text for a deploy stage
func StageMessage(stage quickstart.Stage, project string) string {
	switch stage {
	case quickstart.StageWarehouseProvisioning:
		return "Running... setting up Snowflake"
	case quickstart.StageRemoteServiceSetup:
		return fmt.Sprintf("Running... creating %s", project)
	case quickstart.StageDone:
		return "Finishing..."
	default:
		return "Running..."
	}
}
