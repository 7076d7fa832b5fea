package commands

import (
	"context"
	"fmt"
	"time"

	"crypto-alerts-bot/internal/chart"
	"crypto-alerts-bot/internal/types"
	"crypto-alerts-bot/lib/helpers"
	"crypto-alerts-bot/lib/translation"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

func (r *Router) price(ctx context.Context, req Request) error {
	if len(req.Args) == 0 {
		r.deps.reply(req.ChatID, translation.Translate("Please provide a cryptocurrency symbol. Usage: /price <coin>"))
		return nil
	}

	failed := translation.Translate("Couldn't retrieve price. Please check the symbol and try again later.")

	symbol, err := types.ParseSymbol(req.Args[0])
	if err != nil {
		r.deps.reply(req.ChatID, failed)
		return nil
	}

	p, err := r.deps.Quoter.Fetch(ctx, symbol)
	if err != nil {
		r.deps.Logger.Debugf("price %s: %v", symbol, err)
		r.deps.reply(req.ChatID, failed)
		return nil
	}

	r.deps.reply(req.ChatID, translation.Translate("The current price of %s is €%s", symbol, helpers.FormatPriceRounded(p)))
	return nil
}

type plotItem struct {
	png     []byte
	caption string
}

func (r *Router) plot(ctx context.Context, req Request) error {
	if len(req.Args) == 0 {
		r.deps.reply(req.ChatID, translation.Translate("Please provide a cryptocurrency symbol. Usage: /plot <coin>"))
		return nil
	}

	failed := translation.Translate("Couldn't retrieve historical prices. Please check the symbol and try again later.")

	symbol, err := types.ParseSymbol(req.Args[0])
	if err != nil || r.deps.History == nil {
		r.deps.reply(req.ChatID, failed)
		return nil
	}

	item, err := r.renderPlot(ctx, symbol)
	if err != nil {
		r.deps.Logger.Warnf("Could not fetch historical prices for %s: %v", symbol, err)
		r.deps.reply(req.ChatID, failed)
		return nil
	}

	if err := r.deps.Sender.SendPhoto(req.ChatID, fmt.Sprintf("%s_plot.png", symbol), item.png, item.caption); err != nil {
		return errors.Wrap(err, "error sending chart")
	}
	return nil
}

func (r *Router) renderPlot(ctx context.Context, symbol string) (*plotItem, error) {
	if cached, found := r.plots.Get(symbol); found {
		r.deps.Logger.Debugf("returning cached chart for %s", symbol)
		return cached.(*plotItem), nil
	}

	candles, err := r.deps.History.DailyCloses(ctx, symbol, plotDays)
	if err != nil {
		return nil, err
	}
	if len(candles) < 2 {
		return nil, errors.Errorf("only %d candles for %s", len(candles), symbol)
	}

	times := make([]time.Time, len(candles))
	closes := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		times[i] = c.Time
		closes[i] = c.Close
	}

	title := translation.Translate("%s Price Evolution (Last %d Days)", symbol, plotDays)
	png, err := chart.RenderLine(title, times, closes)
	if err != nil {
		return nil, err
	}

	low, high := lo.MinBy(closes, decimal.Decimal.LessThan), lo.MaxBy(closes, decimal.Decimal.GreaterThan)
	caption := translation.Translate("%s: last €%s, low €%s, high €%s",
		symbol, helpers.FormatPriceUS(closes[len(closes)-1]), helpers.FormatPriceUS(low), helpers.FormatPriceUS(high))

	item := &plotItem{png: png, caption: caption}
	r.plots.Set(symbol, item, cache.DefaultExpiration)
	return item, nil
}
