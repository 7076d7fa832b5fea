package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"crypto-alerts-bot/internal/commands"
	"crypto-alerts-bot/internal/metrics"
	"crypto-alerts-bot/internal/types"

	"github.com/davecgh/go-spew/spew"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// Bot telegram interaction client
type Bot struct {
	api      *tgbotapi.BotAPI
	config   BotConfig
	metrics  *metrics.BotMetrics
	limiters *limiterSet
	logger   *log.Entry
}

// NewBot creates new telegram bot
func NewBot(c BotConfig, m *metrics.BotMetrics) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	api.Debug = c.Debug

	logger := log.WithField("component", "telegram")
	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:      api,
		config:   c,
		metrics:  m,
		limiters: newLimiterSet(c.RatePerSecond, c.RateBurst),
		logger:   logger,
	}, nil
}

// SendText sends a plain text telegram message
func (b *Bot) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return errors.Wrapf(err, "could not send message to %d", chatID)
}

// SendPhoto uploads a PNG with an optional caption
func (b *Bot) SendPhoto(chatID int64, name string, png []byte, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  name,
		Bytes: png,
	})
	photo.Caption = caption
	_, err := b.api.Send(photo)
	return errors.Wrapf(err, "could not send photo %s to %d", name, chatID)
}

// SetCommands registers the command menu shown by telegram clients
func (b *Bot) SetCommands(menu []commands.MenuEntry) error {
	cmds := make([]tgbotapi.BotCommand, 0, len(menu))
	for _, e := range menu {
		cmds = append(cmds, tgbotapi.BotCommand{Command: e.Command, Description: e.Description})
	}
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		return errors.Wrap(err, "could not set bot commands")
	}
	return nil
}

// Run long-polls for updates and dispatches commands one at a time, in
// arrival order, until ctx is done.
func (b *Bot) Run(ctx context.Context, d Dispatcher) error {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.config.UpdatesTimeout
	}
	updates := b.api.GetUpdatesChan(updatesConfig)
	defer b.api.StopReceivingUpdates()

	b.logger.Info("🚀 Listening for telegram updates.")
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return errors.New("telegram updates channel closed")
			}
			b.handleUpdate(ctx, d, u)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, d Dispatcher, u tgbotapi.Update) {
	req, ok := requestFromMessage(u.Message)
	if !ok {
		if b.logger.Logger.IsLevelEnabled(log.DebugLevel) {
			b.logger.Debugf("Received non-message or non-command: %s", spew.Sdump(u))
		}
		return
	}

	b.metrics.MessageHandled(req.ChatID, chatName(u.Message.Chat))

	if !b.limiters.allow(req.Owner.ID) {
		b.logger.Warnf("Rate limit exceeded for user %d, dropping /%s", req.Owner.ID, req.Command)
		b.metrics.MessageRateLimited()
		return
	}

	d.Dispatch(ctx, req)
}

// requestFromMessage turns a bot command message into a Request
func requestFromMessage(m *tgbotapi.Message) (commands.Request, bool) {
	if m == nil || m.From == nil || m.Chat == nil || !m.IsCommand() {
		return commands.Request{}, false
	}

	name := m.From.UserName
	if name == "" {
		name = m.From.FirstName
	}

	return commands.Request{
		Command: strings.ToLower(m.Command()),
		Args:    strings.Fields(m.CommandArguments()),
		Owner:   types.Owner{ID: m.From.ID, Username: m.From.UserName},
		Name:    name,
		ChatID:  m.Chat.ID,
	}, true
}

func chatName(c *tgbotapi.Chat) string {
	if c.Title != "" {
		return c.Title
	}
	return fmt.Sprintf("%s-%d", "PrivateChat", c.ID)
}

// limiterSet hands out one token bucket per user; idle buckets expire
type limiterSet struct {
	limit rate.Limit
	burst int
	cache *cache.Cache
}

func newLimiterSet(perSecond float64, burst int) *limiterSet {
	if perSecond <= 0 {
		perSecond = 3
	}
	if burst <= 0 {
		burst = 5
	}
	return &limiterSet{
		limit: rate.Limit(perSecond),
		burst: burst,
		cache: cache.New(limiterIdleTTL, 2*limiterIdleTTL),
	}
}

func (s *limiterSet) allow(userID int64) bool {
	key := strconv.FormatInt(userID, 10)

	l := rate.NewLimiter(s.limit, s.burst)
	if err := s.cache.Add(key, l, cache.DefaultExpiration); err != nil {
		cached, found := s.cache.Get(key)
		if found {
			l = cached.(*rate.Limiter)
		}
	}
	return l.Allow()
}
