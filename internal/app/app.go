package app

import (
	"context"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"crypto-alerts-bot/config"
	"crypto-alerts-bot/internal/alert"
	"crypto-alerts-bot/internal/commands"
	"crypto-alerts-bot/internal/database"
	"crypto-alerts-bot/internal/metrics"
	"crypto-alerts-bot/internal/price"
	"crypto-alerts-bot/internal/telegram"
	"crypto-alerts-bot/lib/helpers"
	"crypto-alerts-bot/lib/translation"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger *log.Entry
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config) *App {
	return &App{Config: cfg, Logger: log.WithField("component", "app")}
}

func (a *App) openStore() (*database.Store, error) {
	if a.Config.Database.Path == "" {
		a.Logger.Warn("database.path not configured; metrics will not survive restarts")
		return nil, nil
	}
	return database.Open(a.Config.Database.Path)
}

func (a *App) newSource() price.Source {
	q := a.Config.Quote
	if q.Source == config.SourceCoinPaprika {
		return price.NewPaprikaSource(price.PaprikaOptions{
			APIProKey:  q.APIProKey,
			Currency:   q.Currency,
			HTTPClient: &http.Client{Timeout: q.Timeout},
		})
	}
	return price.NewBinanceSource(price.BinanceOptions{
		BaseURL:  q.BaseURL,
		Currency: q.Currency,
		Timeout:  q.Timeout,
	})
}

// binanceURL is the exchange endpoint for history and the symbol catalogue
func (a *App) binanceURL() string {
	if a.Config.Quote.Source == config.SourceBinance {
		return a.Config.Quote.BaseURL
	}
	return ""
}

// Run starts the bot and blocks until SIGINT, SIGTERM or a fatal transport error.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := a.Config
	translation.Configure(cfg.LocalesPath, cfg.Lang)
	a.Logger.Debugf("Replying in language %s", translation.GetLanguage())

	store, err := a.openStore()
	if err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}
	if store != nil {
		defer store.Close()
	}

	registry := alert.NewRegistry()

	botMetrics, err := metrics.NewBotMetrics(prometheus.DefaultRegisterer, registry.Len)
	if err != nil {
		return err
	}
	if store != nil {
		if err := botMetrics.Load(store); err != nil {
			a.Logger.Warnf("Could not restore metrics: %v", err)
		}
	}

	quoter := price.NewFetcher(a.newSource(), price.FetcherOptions{
		Retries:  cfg.Quote.Retries,
		Delay:    cfg.Quote.RetryDelay,
		MaxDelay: cfg.Quote.RetryMaxDelay,
	})
	history := price.NewHistory(a.binanceURL(), cfg.Quote.Currency)
	symbols := price.NewSymbols(a.binanceURL(), cfg.Quote.Currency, 0)

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          cfg.Telegram.Token,
		Debug:          cfg.Debug,
		UpdatesTimeout: cfg.Telegram.UpdatesTimeout,
		RatePerSecond:  cfg.RateLimit.PerSecond,
		RateBurst:      cfg.RateLimit.Burst,
	}, botMetrics)
	if err != nil {
		return err
	}

	checker := alert.NewChecker(registry, quoter, bot, botMetrics, nil)
	binding := alert.NewBinding(checker.Check, nil)

	router := commands.NewRouter(commands.Deps{
		Sender:    bot,
		Quoter:    quoter,
		Registry:  registry,
		Scheduler: binding,
		History:   history,
		Symbols:   symbols,
		Metrics:   botMetrics,
		Admins:    cfg.Admins,
		Interval:  cfg.Alerts.Interval,
		Currency:  cfg.Quote.Currency,
	})

	if err := bot.SetCommands(commands.Menu()); err != nil {
		a.Logger.Warnf("Could not register command menu: %v", err)
	}

	if n, err := symbols.Load(ctx); err != nil {
		a.Logger.Warnf("Could not load valid symbols, continuing without them: %v", err)
	} else {
		a.Logger.Infof("Serving %s %s markets", helpers.FormatCount(n), cfg.Quote.Currency)
	}

	binding.Start(ctx)
	defer binding.Stop()

	var wg sync.WaitGroup
	if cfg.Metrics.Port > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metrics.Serve(ctx, cfg.Metrics.Port, prometheus.DefaultGatherer); err != nil {
				a.Logger.Errorf("Metrics and health server stopped: %v", err)
			}
		}()
	}
	if store != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.FlushEvery(ctx, botMetrics, store, cfg.Metrics.FlushInterval)
		}()
	}

	a.Logger.Infof("Bot started, rechecking alerts every %s", cfg.Alerts.Interval)
	err = bot.Run(ctx, router)

	cancel()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Errorf("Bot terminated with error: %v", err)
		return err
	}
	a.Logger.Info("Bot stopped")
	return nil
}
