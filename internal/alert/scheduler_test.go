package alert

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"crypto-alerts-bot/internal/types"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBinding(t *testing.T, fire TaskFunc) (*Binding, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	b := NewBinding(fire, logger.WithField("component", "alert_scheduler"))
	t.Cleanup(b.Stop)
	return b, hook
}

func TestBinding_ScheduleFindCancel(t *testing.T) {
	b, _ := newTestBinding(t, func(context.Context, *Task) bool { return false })

	alice := types.Owner{ID: 1, Username: "alice"}
	btc := testAlert("BTC", types.Above, "50000")
	eth := testAlert("ETH", types.Below, "1500")

	t1, err := b.Schedule(alice, 10, btc, time.Hour)
	require.NoError(t, err)
	_, err = b.Schedule(alice, 10, eth, time.Hour)
	require.NoError(t, err)
	_, err = b.Schedule(types.Owner{ID: 2}, 20, btc, time.Hour)
	require.NoError(t, err)

	assert.Len(t, b.FindByOwnerName("alice"), 2)
	assert.Len(t, b.FindByOwnerName("id2"), 1)
	assert.Empty(t, b.FindByOwnerName("bob"))
	assert.Equal(t, 3, b.Len())

	b.Cancel(t1)
	b.Cancel(t1)
	b.Cancel(nil)

	remaining := b.FindByOwnerName("alice")
	require.Len(t, remaining, 1)
	assert.True(t, remaining[0].Alert.Equal(eth))
	assert.Equal(t, int64(10), remaining[0].ChatID)
	assert.Equal(t, 2, b.Len())
}

func TestBinding_RejectsNonPositiveInterval(t *testing.T) {
	b, _ := newTestBinding(t, func(context.Context, *Task) bool { return false })

	_, err := b.Schedule(types.Owner{ID: 1}, 1, testAlert("BTC", types.Above, "1"), 0)
	require.Error(t, err)
	assert.Zero(t, b.Len())
}

func TestBinding_ResolvedTaskIsCancelled(t *testing.T) {
	var fired int32
	b, _ := newTestBinding(t, func(_ context.Context, task *Task) bool {
		atomic.AddInt32(&fired, 1)
		return true
	})

	_, err := b.Schedule(types.Owner{ID: 1, Username: "alice"}, 1, testAlert("BTC", types.Above, "1"), 20*time.Millisecond)
	require.NoError(t, err)
	b.Start(context.Background())

	assert.Eventually(t, func() bool { return b.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
	assert.Empty(t, b.FindByOwnerName("alice"))
}

func TestBinding_PanicDoesNotKillTask(t *testing.T) {
	var fired int32
	b, hook := newTestBinding(t, func(context.Context, *Task) bool {
		if atomic.AddInt32(&fired, 1) == 1 {
			panic("boom")
		}
		return false
	})

	_, err := b.Schedule(types.Owner{ID: 1}, 1, testAlert("BTC", types.Above, "1"), 20*time.Millisecond)
	require.NoError(t, err)
	b.Start(context.Background())

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&fired) >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, b.Len())

	var stack string
	for _, e := range hook.AllEntries() {
		if e.Level.String() == "error" {
			stack = e.Message
		}
	}
	assert.Contains(t, stack, "boom")
	assert.Contains(t, stack, "go-co-op/gocron")
}

func TestBinding_FirstFiringWaitsOnePeriod(t *testing.T) {
	var fired int32
	b, _ := newTestBinding(t, func(context.Context, *Task) bool {
		atomic.AddInt32(&fired, 1)
		return false
	})

	_, err := b.Schedule(types.Owner{ID: 1}, 1, testAlert("BTC", types.Above, "1"), time.Hour)
	require.NoError(t, err)
	b.Start(context.Background())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&fired))
}
