package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opstrack/opstrack/internal/util"
	"github.com/opstrack/opstrack/pkg/notification"
	"github.com/robfig/cron/v3"
)

// Notifier publishes user facing status messages. Implementations must
// not block the caller.
type Notifier interface {
	Notify(status notification.Status, text string)
}

type NotifierFunc func(notification.Status, string)

func (f NotifierFunc) Notify(status notification.Status, text string) {
	f(status, text)
}

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(notification.Status, string) {})

// Config

type Config struct {
	Display time.Duration `flag:"display" desc:"how long a notification stays visible" default:"5s"`
	Size    int           `flag:"size" desc:"max notifications retained" default:"100"`
	Sweep   string        `flag:"sweep" desc:"cron schedule for expiring notifications" default:"@every 5s"`
}

// Feed keeps recently published notifications in memory until their
// display duration elapses and fans them out to subscribers.
type Feed struct {
	config      *Config
	mu          sync.RWMutex
	items       []*notification.Notification
	subscribers map[int]chan *notification.Notification
	nextSub     int
	cron        *cron.Cron
	now         func() time.Time
}

func NewFeed(config *Config) *Feed {
	return &Feed{
		config:      config,
		subscribers: map[int]chan *notification.Notification{},
		now:         time.Now,
	}
}

func (f *Feed) String() string {
	return fmt.Sprintf("Feed(display=%s, size=%d)", f.config.Display, f.config.Size)
}

// Start schedules the sweep of expired notifications.
func (f *Feed) Start() error {
	schedule, err := util.ParseCron(f.config.Sweep)
	if err != nil {
		return fmt.Errorf("invalid sweep schedule: %w", err)
	}

	f.cron = cron.New()
	f.cron.Schedule(schedule, cron.FuncJob(func() {
		f.Sweep(f.now())
	}))
	f.cron.Start()

	return nil
}

func (f *Feed) Stop() error {
	if f.cron != nil {
		<-f.cron.Stop().Done()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for id, ch := range f.subscribers {
		close(ch)
		delete(f.subscribers, id)
	}

	return nil
}

func (f *Feed) Notify(status notification.Status, text string) {
	n := &notification.Notification{
		Id:        uuid.NewString(),
		Status:    status,
		Text:      text,
		CreatedOn: f.now().UnixMilli(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, n)
	if over := len(f.items) - f.config.Size; f.config.Size > 0 && over > 0 {
		f.items = f.items[over:]
	}

	for id, ch := range f.subscribers {
		select {
		case ch <- n:
		default:
			slog.Debug("notify:drop", "subscriber", id, "notification", n)
		}
	}
}

// Recent returns the notifications that are still visible at now,
// oldest first.
func (f *Feed) Recent(now time.Time) []*notification.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	recent := []*notification.Notification{}
	for _, n := range f.items {
		if !f.expired(n, now) {
			recent = append(recent, n)
		}
	}

	return recent
}

// Sweep drops the notifications whose display duration elapsed.
func (f *Feed) Sweep(now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.items[:0]
	for _, n := range f.items {
		if !f.expired(n, now) {
			kept = append(kept, n)
		}
	}

	swept := len(f.items) - len(kept)
	for i := len(kept); i < len(f.items); i++ {
		f.items[i] = nil
	}
	f.items = kept

	return swept
}

// Subscribe returns a channel receiving every notification published
// after the call and a function to cancel the subscription. Deliveries
// to a full channel are dropped.
func (f *Feed) Subscribe(buffer int) (<-chan *notification.Notification, func()) {
	ch := make(chan *notification.Notification, buffer)

	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subscribers[id] = ch
	f.mu.Unlock()

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()

		if ch, ok := f.subscribers[id]; ok {
			close(ch)
			delete(f.subscribers, id)
		}
	}
}

func (f *Feed) expired(n *notification.Notification, now time.Time) bool {
	return f.config.Display > 0 && now.Sub(time.UnixMilli(n.CreatedOn)) >= f.config.Display
}

// Log writes every notification to the default logger.
var Log Notifier = NotifierFunc(func(status notification.Status, text string) {
	slog.Info("notification", "status", status, "text", text)
})

// Multi publishes to every notifier in order.
func Multi(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(status notification.Status, text string) {
		for _, n := range notifiers {
			n.Notify(status, text)
		}
	})
}
