// Package notifier runs scheduled notifications in-process and hands
// fired ones to a delivery sink.
package notifier

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/reminders"
)

var log = logger.With("component", "notifier")

// fireTimeout bounds the handler and sink work for one fired request.
const fireTimeout = 30 * time.Second

// Sink delivers a notification to the user.
type Sink interface {
	Deliver(ctx context.Context, requestID string, content reminders.Content) error
}

// FireHandler is consulted when a request fires. It may rewrite the
// content and returns false to suppress delivery.
type FireHandler func(ctx context.Context, requestID string, content reminders.Content) (reminders.Content, bool)

type stopper interface {
	Stop() bool
}

var afterFunc = func(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

type entry struct {
	trigger reminders.Trigger
	content reminders.Content
	gen     uint64
	cronID  cron.EntryID
	timer   stopper
	due     time.Time
}

// Center implements reminders.NotificationPort. Repeating triggers run
// on a cron schedule in the center's location and only fire between
// Start and Stop. One-shot triggers start counting when scheduled.
type Center struct {
	cron *cron.Cron
	sink Sink
	now  func() time.Time

	mu        sync.Mutex
	handler   FireHandler
	pending   map[string]*entry
	delivered map[string]time.Time
	gen       uint64
}

func NewCenter(loc *time.Location, sink Sink) *Center {
	if loc == nil {
		loc = time.Local
	}
	return &Center{
		cron:      cron.New(cron.WithLocation(loc)),
		sink:      sink,
		now:       time.Now,
		pending:   make(map[string]*entry),
		delivered: make(map[string]time.Time),
	}
}

// SetFireHandler installs h. It is separate from NewCenter because the
// handler usually wraps a scheduler that uses this center as its port.
func (c *Center) SetFireHandler(h FireHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

func (c *Center) Start() {
	c.cron.Start()
}

// Stop halts the cron runner, waits for running jobs up to ctx, and
// stops pending one-shot timers.
func (c *Center) Stop(ctx context.Context) {
	done := c.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.pending {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
}

// Schedule registers or replaces the request with id.
func (c *Center) Schedule(_ context.Context, id string, trigger reminders.Trigger, content reminders.Content) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.pending[id]; ok {
		c.removeLocked(old)
		delete(c.pending, id)
	}

	c.gen++
	e := &entry{trigger: trigger, content: content, gen: c.gen}
	gen := e.gen

	switch trigger.Kind {
	case reminders.TriggerRepeatingDaily:
		if trigger.Hour < 0 || trigger.Hour > 23 || trigger.Minute < 0 || trigger.Minute > 59 {
			return fmt.Errorf("invalid daily trigger %02d:%02d", trigger.Hour, trigger.Minute)
		}
		spec := fmt.Sprintf("%d %d * * *", trigger.Minute, trigger.Hour)
		cronID, err := c.cron.AddFunc(spec, func() { c.fire(id, gen) })
		if err != nil {
			return fmt.Errorf("failed to add cron job for %s: %w", id, err)
		}
		e.cronID = cronID
	case reminders.TriggerOneShot:
		if trigger.After < 0 {
			return fmt.Errorf("invalid one-shot delay %s", trigger.After)
		}
		e.due = c.now().Add(trigger.After)
		e.timer = afterFunc(trigger.After, func() { c.fire(id, gen) })
	default:
		return fmt.Errorf("unknown trigger kind %d", trigger.Kind)
	}

	c.pending[id] = e
	log.Debug("notification scheduled", "request", id, "trigger", trigger.String())
	return nil
}

// Cancel drops every pending and delivered request matching prefix.
func (c *Center) Cancel(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.pending {
		if reminders.MatchesPrefix(id, prefix) {
			c.removeLocked(e)
			delete(c.pending, id)
		}
	}
	for id := range c.delivered {
		if reminders.MatchesPrefix(id, prefix) {
			delete(c.delivered, id)
		}
	}
	return nil
}

func (c *Center) PendingRequestIDs(context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.pending), nil
}

// Delivered lists ids that reached the sink and were not cancelled since.
func (c *Center) Delivered() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.delivered)
}

// Next returns when id fires next. Repeating requests only report a
// time once the center has started.
func (c *Center) Next(id string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.pending[id]
	if !ok {
		return time.Time{}, false
	}
	if e.trigger.Kind == reminders.TriggerOneShot {
		return e.due, true
	}
	next := c.cron.Entry(e.cronID).Next
	return next, !next.IsZero()
}

func (c *Center) removeLocked(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
	}
	if e.cronID != 0 {
		c.cron.Remove(e.cronID)
	}
}

// fire runs outside the lock so the handler may schedule or cancel.
func (c *Center) fire(id string, gen uint64) {
	c.mu.Lock()
	e, ok := c.pending[id]
	if !ok || e.gen != gen {
		c.mu.Unlock()
		return
	}
	content := e.content
	if e.trigger.Kind == reminders.TriggerOneShot {
		delete(c.pending, id)
	}
	handler := c.handler
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	if handler != nil {
		var present bool
		content, present = handler(ctx, id, content)
		if !present {
			log.Debug("notification suppressed", "request", id)
			return
		}
	}

	if c.sink == nil {
		return
	}
	if err := c.sink.Deliver(ctx, id, content); err != nil {
		log.Warn("failed to deliver notification", "request", id, "err", err)
		return
	}

	c.mu.Lock()
	c.delivered[id] = c.now()
	c.mu.Unlock()
}

func sortedKeys[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
