package commands

import (
	"context"
	"strconv"
	"strings"

	"crypto-alerts-bot/lib/translation"

	"github.com/samber/lo"
)

func (r *Router) listUsers(_ context.Context, req Request) error {
	owners := r.deps.Registry.Owners()
	if len(owners) == 0 {
		r.deps.reply(req.ChatID, translation.Translate("No users have set any alerts."))
		return nil
	}

	ids := lo.Map(owners, func(id int64, _ int) string { return strconv.FormatInt(id, 10) })
	r.deps.reply(req.ChatID, translation.Translate("Users with price alerts:")+"\n"+strings.Join(ids, "\n"))
	return nil
}
