package commands

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

const (
	defaultInterval = 30 * time.Second
	plotCacheTTL    = 5 * time.Minute
	plotDays        = 30
)

// Router maps command names to wrapped handlers
type Router struct {
	deps     *Deps
	handlers map[string]HandlerFunc
	plots    *cache.Cache
}

// NewRouter registers every bot command. Each handler is wrapped with Recover,
// listusers additionally with AdminOnly.
func NewRouter(d Deps) *Router {
	if d.Logger == nil {
		d.Logger = log.WithField("component", "commands")
	}
	if d.Interval <= 0 {
		d.Interval = defaultInterval
	}
	if d.Currency == "" {
		d.Currency = "EUR"
	}

	r := &Router{
		deps:     &d,
		handlers: make(map[string]HandlerFunc),
		plots:    cache.New(plotCacheTTL, 2*plotCacheTTL),
	}

	r.Handle("start", r.start)
	r.Handle("help", r.help)
	r.Handle("price", r.price)
	r.Handle("plot", r.plot)
	r.Handle("addalert", r.addAlert)
	r.Handle("listalerts", r.listAlerts)
	r.Handle("removealert", r.removeAlert)
	r.Handle("clearalerts", r.clearAlerts)
	r.Handle("listusers", d.AdminOnly(r.listUsers))

	return r
}

// Handle registers h under name, wrapped with Recover
func (r *Router) Handle(name string, h HandlerFunc) {
	r.handlers[strings.ToLower(name)] = r.deps.Recover(name, h)
}

// Dispatch runs the handler for req.Command. Unknown commands are answered
// with the help text and reported as not handled.
func (r *Router) Dispatch(ctx context.Context, req Request) bool {
	h, ok := r.handlers[strings.ToLower(req.Command)]
	if !ok {
		r.deps.Logger.Debugf("Unknown command /%s from %d", req.Command, req.Owner.ID)
		r.deps.reply(req.ChatID, helpText())
		return false
	}

	r.deps.Logger.Debugf("received command: %s %v", req.Command, req.Args)
	_ = h(ctx, req)
	r.deps.Metrics.CommandProcessed()
	return true
}
