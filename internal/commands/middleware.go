package commands

import (
	"context"
	"runtime/debug"

	"crypto-alerts-bot/lib/translation"

	"github.com/samber/lo"
)

// Recover terminates every error and panic of next: it logs them and replies
// with a generic apology.
func (d *Deps) Recover(name string, next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, req Request) error {
		defer func() {
			if r := recover(); r != nil {
				d.Logger.Errorf("Recovered from panic in command %s: %v\nStack trace: %s", name, r, debug.Stack())
				d.apologize(req.ChatID)
			}
		}()

		if err := next(ctx, req); err != nil {
			d.Logger.Errorf("Unhandled error in command %s: %v", name, err)
			d.apologize(req.ChatID)
		}
		return nil
	}
}

func (d *Deps) apologize(chatID int64) {
	d.reply(chatID, translation.Translate("An unexpected error occurred. Please try again later."))
}

// AdminOnly lets only ids in the admin allow-list through
func (d *Deps) AdminOnly(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, req Request) error {
		if !lo.Contains(d.Admins, req.Owner.ID) {
			d.Logger.Warnf("User %d tried to use /%s without being an admin", req.Owner.ID, req.Command)
			d.reply(req.ChatID, translation.Translate("You are not authorized to use this command."))
			return nil
		}
		return next(ctx, req)
	}
}
