package commands

import (
	"context"
	"fmt"
	"strings"

	"crypto-alerts-bot/internal/types"
	"crypto-alerts-bot/lib/helpers"
	"crypto-alerts-bot/lib/translation"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	addAlertUsage    = "/addalert <crypto> <above/below> <target_price>"
	removeAlertUsage = "/removealert <crypto> <above/below> <target_price>"
)

func describe(a types.Alert) string {
	return fmt.Sprintf("%s to be %s €%s", a.Symbol, a.Direction, helpers.FormatThreshold(a.Threshold))
}

func (r *Router) addAlert(ctx context.Context, req Request) error {
	if len(req.Args) < 3 {
		r.deps.reply(req.ChatID, usage(addAlertUsage))
		return nil
	}

	symbol, err := types.ParseSymbol(req.Args[0])
	if err != nil {
		r.deps.reply(req.ChatID, translation.Translate("Symbol must contain only letters and digits, e.g. BTC."))
		return nil
	}

	threshold, err := decimal.NewFromString(req.Args[2])
	if err != nil {
		r.deps.reply(req.ChatID, translation.Translate("Target price must be a valid number."))
		return nil
	}

	direction, err := types.ParseDirection(req.Args[1])
	if err != nil {
		r.deps.reply(req.ChatID, translation.Translate("Direction must be 'above' or 'below'."))
		return nil
	}

	a := types.NewAlert(symbol, direction, threshold)
	if r.deps.Registry.Contains(req.Owner.ID, a) {
		r.deps.reply(req.ChatID, translation.Translate("You already have an alert for %s.", describe(a)))
		return nil
	}

	r.deps.Registry.Add(req.Owner.ID, a)
	if _, err := r.deps.Scheduler.Schedule(req.Owner, req.ChatID, a, r.deps.Interval); err != nil {
		r.deps.Registry.Remove(req.Owner.ID, a)
		return errors.Wrap(err, "schedule alert")
	}

	text := translation.Translate("Alert set for %s.", describe(a))
	if r.deps.Symbols != nil {
		if known, loaded := r.deps.Symbols.Known(ctx, symbol); loaded && !known {
			text += "\n" + translation.Translate("Note: %s is not listed against %s, the alert may never fire.", symbol, r.deps.Currency)
		}
	}

	r.deps.Logger.Infof("Alert %s added for %s", a, req.Owner.Handle())
	r.deps.reply(req.ChatID, text)
	return nil
}

func (r *Router) listAlerts(_ context.Context, req Request) error {
	r.deps.reply(req.ChatID, r.alertList(req))
	return nil
}

func (r *Router) alertList(req Request) string {
	alerts := r.deps.Registry.List(req.Owner.ID)
	if len(alerts) == 0 {
		return translation.Translate("Hey %s, you have no active alerts.", req.DisplayName())
	}

	lines := make([]string, 0, len(alerts)+1)
	lines = append(lines, translation.Translate("Hey %s, your active alerts are:", req.DisplayName()))
	for _, a := range alerts {
		lines = append(lines, fmt.Sprintf("%s | %s | €%s", a.Symbol, a.Direction, helpers.FormatThreshold(a.Threshold)))
	}
	return strings.Join(lines, "\n")
}

// removeAlert cancels matching tasks and removes the alert independently,
// reporting each outcome on its own.
func (r *Router) removeAlert(_ context.Context, req Request) error {
	if !r.deps.Registry.Has(req.Owner.ID) {
		r.deps.reply(req.ChatID, translation.Translate("You have no alerts to remove."))
		return nil
	}

	if len(req.Args) < 3 {
		r.deps.reply(req.ChatID, usage(removeAlertUsage))
		return nil
	}

	threshold, err := decimal.NewFromString(req.Args[2])
	if err != nil {
		r.deps.reply(req.ChatID, translation.Translate("Target price must be a number."))
		return nil
	}
	direction, err := types.ParseDirection(req.Args[1])
	if err != nil {
		r.deps.reply(req.ChatID, translation.Translate("Direction must be 'above' or 'below'."))
		return nil
	}
	a := types.NewAlert(req.Args[0], direction, threshold)

	var cancelled int
	for _, t := range r.deps.Scheduler.FindByOwnerName(req.Owner.Handle()) {
		if t.Alert.Equal(a) {
			r.deps.Scheduler.Cancel(t)
			cancelled++
		}
	}
	if cancelled > 0 {
		r.deps.reply(req.ChatID, translation.Translate("Removed job for %s.", describe(a)))
	} else {
		r.deps.reply(req.ChatID, translation.Translate("Job not found."))
	}

	removed, ok := r.deps.Registry.Remove(req.Owner.ID, a)
	if !ok {
		r.deps.reply(req.ChatID, translation.Translate("Alert not found."))
		return nil
	}

	r.deps.Logger.Infof("Alert %s removed for %s", removed, req.Owner.Handle())
	r.deps.reply(req.ChatID, translation.Translate("Removed alert for %s.", describe(removed)))
	r.deps.reply(req.ChatID, r.alertList(req))
	return nil
}

func (r *Router) clearAlerts(_ context.Context, req Request) error {
	if !r.deps.Registry.Has(req.Owner.ID) {
		r.deps.reply(req.ChatID, translation.Translate("Hey %s, you have no alerts to clear.", req.DisplayName()))
		return nil
	}

	tasks := r.deps.Scheduler.FindByOwnerName(req.Owner.Handle())
	for _, t := range tasks {
		r.deps.Scheduler.Cancel(t)
	}
	r.deps.Registry.RemoveAll(req.Owner.ID)

	r.deps.Logger.Infof("Cleared alerts of %s, %d tasks cancelled", req.Owner.Handle(), len(tasks))
	r.deps.reply(req.ChatID, translation.Translate("Hey %s, all your alerts have been cleared.", req.DisplayName()))
	return nil
}
