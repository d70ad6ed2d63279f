package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
	"wa-scheduler/internal/model"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// FireFunc is called for every due trigger, one at a time.
type FireFunc func(ctx context.Context, to model.Recipient, msg model.Message)

// Trigger is a registered (recipient, message, schedule) tuple.
type Trigger struct {
	ID        int
	Recipient model.Recipient
	Message   model.Message
	Spec      string

	schedule cron.Schedule
	next     time.Time
}

// Next is the upcoming fire time.
func (t *Trigger) Next() time.Time {
	return t.next
}

// TriggerInfo is a read-only view of a trigger.
type TriggerInfo struct {
	ID        int               `json:"id"`
	Recipient model.Recipient   `json:"recipient"`
	Kind      model.MessageKind `json:"kind"`
	Schedule  string            `json:"schedule"`
	Summary   string            `json:"summary"`
	Next      time.Time         `json:"next"`
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

// Scheduler keeps daily triggers and fires the due ones on each tick.
type Scheduler struct {
	fire     FireFunc
	clock    Clock
	loc      *time.Location
	interval time.Duration
	log      zerolog.Logger

	mu       sync.Mutex
	triggers []*Trigger
}

func New(fire FireFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		fire:     fire,
		clock:    SystemClock,
		loc:      time.Local,
		interval: time.Second,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a trigger for msg. The first fire time is strictly after now.
func (s *Scheduler) Register(to model.Recipient, msg model.Message) (*Trigger, error) {
	spec, err := specFor(msg)
	if err != nil {
		return nil, err
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &Trigger{
		ID:        len(s.triggers) + 1,
		Recipient: to,
		Message:   msg,
		Spec:      msg.ScheduleLabel(),
		schedule:  sched,
	}
	t.next = sched.Next(s.clock.Now().In(s.loc))
	s.triggers = append(s.triggers, t)

	s.log.Info().
		Str("recipient", to.String()).
		Str("kind", string(msg.Kind())).
		Str("schedule", t.Spec).
		Time("next", t.next).
		Msg("trigger registered")
	return t, nil
}

func specFor(msg model.Message) (string, error) {
	if msg.Cron != "" {
		return msg.Cron, nil
	}
	tod, err := model.ParseTimeOfDay(msg.Time)
	if err != nil {
		return "", fmt.Errorf("scheduler: %w", err)
	}
	return tod.CronSpec(), nil
}

// Triggers returns a snapshot in registration order.
func (s *Scheduler) Triggers() []TriggerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TriggerInfo, 0, len(s.triggers))
	for _, t := range s.triggers {
		out = append(out, TriggerInfo{
			ID:        t.ID,
			Recipient: t.Recipient,
			Kind:      t.Message.Kind(),
			Schedule:  t.Spec,
			Summary:   t.Message.Summary(),
			Next:      t.next,
		})
	}
	return out
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggers)
}

// Tick fires every trigger due at now and returns how many fired.
func (s *Scheduler) Tick(now time.Time) int {
	return s.tick(context.Background(), now)
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) int {
	now = now.In(s.loc)

	// Reschedule under the lock, fire without it so snapshots stay available
	// while a dispatch blocks.
	s.mu.Lock()
	var due []*Trigger
	for _, t := range s.triggers {
		if t.next.After(now) {
			continue
		}
		due = append(due, t)
		t.next = t.schedule.Next(now)
	}
	s.mu.Unlock()

	fired := 0
	for _, t := range due {
		if ctx.Err() != nil {
			break
		}
		s.log.Info().
			Int("trigger", t.ID).
			Str("recipient", t.Recipient.String()).
			Str("schedule", t.Spec).
			Msg("trigger due")
		if s.fire != nil {
			s.fire(ctx, t.Recipient, t.Message)
		}
		fired++
	}
	return fired
}

// Run ticks until ctx is cancelled and returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Int("triggers", s.Len()).Dur("interval", s.interval).Msg("scheduler running")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx, s.clock.Now())
		}
	}
}
