package reminders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/julianstephens/habitual/internal/models"
)

type scheduled struct {
	trigger Trigger
	content Content
}

type fakePort struct {
	mu         sync.Mutex
	pending    map[string]scheduled
	scheduleFn func(id string) error
	cancelErr  error
	cancels    []string
}

func newFakePort() *fakePort {
	return &fakePort{pending: make(map[string]scheduled)}
}

func (p *fakePort) Schedule(_ context.Context, id string, trigger Trigger, content Content) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scheduleFn != nil {
		if err := p.scheduleFn(id); err != nil {
			return err
		}
	}
	p.pending[id] = scheduled{trigger: trigger, content: content}
	return nil
}

func (p *fakePort) Cancel(_ context.Context, prefix string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancels = append(p.cancels, prefix)
	if p.cancelErr != nil {
		return p.cancelErr
	}
	for id := range p.pending {
		if MatchesPrefix(id, prefix) {
			delete(p.pending, id)
		}
	}
	return nil
}

func (p *fakePort) PendingRequestIDs(context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.pending))
	for id := range p.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (p *fakePort) get(id string) (scheduled, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.pending[id]
	return s, ok
}

func (p *fakePort) followUps(habitID string) []string {
	ids, _ := p.PendingRequestIDs(context.Background())
	var out []string
	for _, id := range ids {
		if strings.HasPrefix(id, FollowUpPrefix(habitID)) {
			out = append(out, id)
		}
	}
	return out
}

func (p *fakePort) forHabit(habitID string) []string {
	ids, _ := p.PendingRequestIDs(context.Background())
	var out []string
	for _, id := range ids {
		if MatchesPrefix(id, HabitPrefix(habitID)) {
			out = append(out, id)
		}
	}
	return out
}

type fakeLogged struct {
	mu     sync.Mutex
	logged map[string]bool
	err    error
}

func (f *fakeLogged) set(habitID string, v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logged == nil {
		f.logged = make(map[string]bool)
	}
	f.logged[habitID] = v
}

func (f *fakeLogged) IsLoggedToday(_ context.Context, habitID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.logged[habitID], nil
}

type fakeRemaining struct {
	n   int
	err error
}

func (f fakeRemaining) RemainingToday(context.Context) (int, error) { return f.n, f.err }

type fakeWriter struct {
	entries []models.HabitEntry
	err     error
}

func (w *fakeWriter) LogEntry(_ context.Context, e models.HabitEntry) error {
	if w.err != nil {
		return w.err
	}
	w.entries = append(w.entries, e)
	return nil
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("n%d", n)
	}
}

var errTransport = errors.New("transport down")
