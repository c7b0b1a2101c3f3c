package notify

import (
	"testing"
	"time"

	"github.com/opstrack/opstrack/pkg/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newFeed(display time.Duration, size int) (*Feed, *time.Time) {
	now := time.UnixMilli(1704719383520)
	f := NewFeed(&Config{Display: display, Size: size, Sweep: "@every 1s"})
	f.now = func() time.Time { return now }

	return f, &now
}

func TestFeedRecentAndSweep(t *testing.T) {
	f, now := newFeed(5*time.Second, 10)

	f.Notify(notification.Success, "Voting succeeded!")
	*now = now.Add(3 * time.Second)
	f.Notify(notification.Error, "Staking failed")

	recent := f.Recent(*now)
	require.Len(t, recent, 2)
	assert.Equal(t, "Voting succeeded!", recent[0].Text)
	assert.NotEmpty(t, recent[0].Id)

	later := now.Add(3 * time.Second)
	recent = f.Recent(later)
	require.Len(t, recent, 1)
	assert.Equal(t, notification.Error, recent[0].Status)

	assert.Equal(t, 1, f.Sweep(later))
	assert.Equal(t, 0, f.Sweep(later))
	assert.Len(t, f.Recent(*now), 1)
}

func TestFeedSize(t *testing.T) {
	f, now := newFeed(0, 2)

	f.Notify(notification.Info, "a")
	f.Notify(notification.Info, "b")
	f.Notify(notification.Info, "c")

	recent := f.Recent(*now)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Text)
	assert.Equal(t, "c", recent[1].Text)
}

func TestFeedSubscribe(t *testing.T) {
	f, _ := newFeed(time.Second, 10)

	ch, cancel := f.Subscribe(1)
	f.Notify(notification.Success, "first")
	f.Notify(notification.Success, "dropped")

	n := <-ch
	assert.Equal(t, "first", n.Text)

	cancel()
	_, ok := <-ch
	assert.False(t, ok)

	// cancel is idempotent
	cancel()
}

func TestFeedStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := NewFeed(&Config{Display: time.Second, Size: 10, Sweep: "@every 1s"})
	require.NoError(t, f.Start())

	ch, _ := f.Subscribe(1)
	require.NoError(t, f.Stop())

	_, ok := <-ch
	assert.False(t, ok)

	f = NewFeed(&Config{Sweep: "nope"})
	assert.Error(t, f.Start())
}

func TestMulti(t *testing.T) {
	texts := []string{}
	record := NotifierFunc(func(_ notification.Status, text string) {
		texts = append(texts, text)
	})

	Multi(record, Discard, record).Notify(notification.Info, "foo")
	assert.Equal(t, []string{"foo", "foo"}, texts)
}
