package alert

import (
	"context"
	"testing"

	"crypto-alerts-bot/internal/price"
	"crypto-alerts-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuoter struct {
	price decimal.Decimal
	err   error
	calls int
}

func (q *stubQuoter) Fetch(context.Context, string) (decimal.Decimal, error) {
	q.calls++
	return q.price, q.err
}

type sentMessage struct {
	chatID int64
	text   string
}

type recordingNotifier struct {
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) SendText(chatID int64, text string) error {
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return n.err
}

func newTestChecker(q Quoter, n Notifier) (*Checker, *Registry) {
	logger, _ := test.NewNullLogger()
	r := NewRegistry()
	return NewChecker(r, q, n, nil, logger.WithField("component", "alert_checker")), r
}

func TestChecker_MatchNotifiesAndRemoves(t *testing.T) {
	q := &stubQuoter{price: decimal.NewFromInt(51000)}
	n := &recordingNotifier{}
	c, r := newTestChecker(q, n)

	a := testAlert("BTC", types.Above, "50000")
	owner := types.Owner{ID: 42, Username: "alice"}
	r.Add(owner.ID, a)

	resolved := c.Check(context.Background(), &Task{Owner: owner, ChatID: 4200, Alert: a})

	assert.True(t, resolved)
	require.Len(t, n.sent, 1)
	assert.Equal(t, int64(4200), n.sent[0].chatID)
	assert.Equal(t, "Alert: BTC is now above €50000 (current price: €51000.0).", n.sent[0].text)
	assert.False(t, r.Has(owner.ID))
	assert.Empty(t, r.Owners())
}

func TestChecker_NoMatchKeepsAlert(t *testing.T) {
	q := &stubQuoter{price: decimal.RequireFromString("49999.99")}
	n := &recordingNotifier{}
	c, r := newTestChecker(q, n)

	a := testAlert("BTC", types.Above, "50000")
	r.Add(1, a)

	assert.False(t, c.Check(context.Background(), &Task{Owner: types.Owner{ID: 1}, ChatID: 1, Alert: a}))
	assert.Empty(t, n.sent)
	assert.Len(t, r.List(1), 1)
}

func TestChecker_BelowBoundaryIsInclusive(t *testing.T) {
	q := &stubQuoter{price: decimal.NewFromInt(1500)}
	n := &recordingNotifier{}
	c, r := newTestChecker(q, n)

	a := testAlert("ETH", types.Below, "1500")
	r.Add(1, a)

	assert.True(t, c.Check(context.Background(), &Task{Owner: types.Owner{ID: 1}, ChatID: 1, Alert: a}))
	require.Len(t, n.sent, 1)
	assert.Equal(t, "Alert: ETH is now below €1500 (current price: €1500.0).", n.sent[0].text)
}

func TestChecker_UnavailableQuoteIsSilent(t *testing.T) {
	q := &stubQuoter{err: errors.Wrap(price.ErrUnavailable, "BTC")}
	n := &recordingNotifier{}
	c, r := newTestChecker(q, n)

	a := testAlert("BTC", types.Above, "1")
	r.Add(1, a)

	assert.False(t, c.Check(context.Background(), &Task{Owner: types.Owner{ID: 1}, ChatID: 1, Alert: a}))
	assert.Empty(t, n.sent)
	assert.Len(t, r.List(1), 1)
}

func TestChecker_SendFailureStillCleansUp(t *testing.T) {
	q := &stubQuoter{price: decimal.NewFromInt(10)}
	n := &recordingNotifier{err: errors.New("chat not found")}
	c, r := newTestChecker(q, n)

	a := testAlert("BTC", types.Above, "5")
	r.Add(1, a)

	assert.True(t, c.Check(context.Background(), &Task{Owner: types.Owner{ID: 1}, ChatID: 1, Alert: a}))
	assert.False(t, r.Has(1))
}

func TestChecker_MissingTaskData(t *testing.T) {
	q := &stubQuoter{}
	n := &recordingNotifier{}
	c, _ := newTestChecker(q, n)

	assert.False(t, c.Check(context.Background(), nil))
	assert.False(t, c.Check(context.Background(), &Task{}))
	assert.Zero(t, q.calls)
	assert.Empty(t, n.sent)
}

func TestNotification_RoundsObservedPrice(t *testing.T) {
	a := testAlert("BTC", types.Above, "50000.5")
	assert.Equal(t, "Alert: BTC is now above €50000.5 (current price: €51000.46).",
		Notification(a, decimal.RequireFromString("51000.456")))
}
