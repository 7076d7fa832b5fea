package alert

import (
	"context"

	"crypto-alerts-bot/internal/metrics"
	"crypto-alerts-bot/internal/types"
	"crypto-alerts-bot/lib/helpers"
	"crypto-alerts-bot/lib/translation"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Quoter returns the current price of a symbol or an error when none is available
type Quoter interface {
	Fetch(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Notifier delivers a plain text message to a chat
type Notifier interface {
	SendText(chatID int64, text string) error
}

// Checker runs one recheck of a scheduled alert
type Checker struct {
	registry *Registry
	quoter   Quoter
	notifier Notifier
	metrics  *metrics.BotMetrics
	logger   *log.Entry
}

// NewChecker builds a checker. m and logger may be nil.
func NewChecker(registry *Registry, quoter Quoter, notifier Notifier, m *metrics.BotMetrics, logger *log.Entry) *Checker {
	if logger == nil {
		logger = log.WithField("component", "alert_checker")
	}
	return &Checker{
		registry: registry,
		quoter:   quoter,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Notification is the message sent when a fired alert is observed at price
func Notification(a types.Alert, price decimal.Decimal) string {
	return translation.Translate("Alert: %s is now %s €%s (current price: €%s).",
		a.Symbol, string(a.Direction), helpers.FormatThreshold(a.Threshold), helpers.FormatPriceRounded(price))
}

// Check fetches the price for the task's alert and, on a match, notifies the
// owner and drops the alert from the registry. It reports whether the alert
// resolved; an unavailable quote is a silent retry on the next firing.
func (c *Checker) Check(ctx context.Context, t *Task) bool {
	if t == nil || t.Alert.IsZero() {
		c.logger.Error("Alert job has no alert data, skipping")
		return false
	}

	a := t.Alert
	price, err := c.quoter.Fetch(ctx, a.Symbol)
	if err != nil {
		c.logger.Warnf("🔍 No price for %s, rechecking next period: %v", a.Symbol, err)
		c.metrics.QuoteFailed()
		return false
	}

	c.logger.Debugf("🔍 Checking %s for %s | Current: %s", a, t.Owner.Handle(), price.String())
	if !a.Matches(price) {
		return false
	}

	c.logger.Infof("🚨 Alert triggered: %s for %s at %s", a, t.Owner.Handle(), price.String())
	c.metrics.AlertTriggered()

	if err := c.notifier.SendText(t.ChatID, Notification(a, price)); err != nil {
		c.logger.Warnf("❌ Failed to send alert notification to chat %d: %v", t.ChatID, err)
	} else {
		c.logger.Debugf("✅ Alert notification sent to chat %d", t.ChatID)
	}

	if _, ok := c.registry.Remove(t.Owner.ID, a); !ok {
		c.logger.Debugf("Alert %s was already gone from the registry of %d", a, t.Owner.ID)
	}

	return true
}
