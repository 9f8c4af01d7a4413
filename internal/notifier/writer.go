package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/reminders"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	followUpStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// WriterSink prints notifications, one per line. Used for dry runs and
// for headless machines without a tray app.
type WriterSink struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w, now: time.Now}
}

func (s *WriterSink) Deliver(_ context.Context, requestID string, content reminders.Content) error {
	title := titleStyle.Render(content.Title)
	if content.FollowUp {
		title = followUpStyle.Render(content.Title)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "%s %s %s %s\n",
		dimStyle.Render(s.now().Format("15:04")),
		title,
		content.Body,
		dimStyle.Render("("+requestID+")"),
	)
	return err
}
