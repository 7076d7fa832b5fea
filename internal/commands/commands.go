package commands

import (
	"context"
	"time"

	"crypto-alerts-bot/internal/alert"
	"crypto-alerts-bot/internal/metrics"
	"crypto-alerts-bot/internal/price"
	"crypto-alerts-bot/internal/types"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Request is one parsed bot command
type Request struct {
	Command string
	Args    []string
	Owner   types.Owner
	// Name is how the user is greeted in replies
	Name   string
	ChatID int64
}

// DisplayName returns the greeting name, falling back to the owner's handle
func (r Request) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Owner.Handle()
}

// HandlerFunc handles one command. A returned error is logged and answered
// with a generic apology by the Recover wrapper.
type HandlerFunc func(ctx context.Context, req Request) error

// Sender delivers replies to a chat
type Sender interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, name string, png []byte, caption string) error
}

// Quoter returns the current price of a symbol
type Quoter interface {
	Fetch(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Scheduler is the recurring task registry alerts are rechecked on
type Scheduler interface {
	Schedule(owner types.Owner, chatID int64, a types.Alert, interval time.Duration) (*alert.Task, error)
	FindByOwnerName(handle string) []*alert.Task
	Cancel(t *alert.Task)
}

// History returns daily closing prices
type History interface {
	DailyCloses(ctx context.Context, symbol string, days int) ([]price.Candle, error)
}

// SymbolSet tells whether a symbol is listed on the exchange
type SymbolSet interface {
	Known(ctx context.Context, symbol string) (known, loaded bool)
}

// Deps are the collaborators command handlers work with. History, Symbols and
// Metrics may be nil.
type Deps struct {
	Sender    Sender
	Quoter    Quoter
	Registry  *alert.Registry
	Scheduler Scheduler
	History   History
	Symbols   SymbolSet
	Metrics   *metrics.BotMetrics

	Admins   []int64
	Interval time.Duration
	Currency string
	Logger   *log.Entry
}

// reply sends text and only logs a delivery failure
func (d *Deps) reply(chatID int64, text string) {
	if err := d.Sender.SendText(chatID, text); err != nil {
		d.Logger.Warnf("Failed to send message to %d: %v", chatID, err)
	}
}
