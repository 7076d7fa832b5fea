package telegram

import (
	"context"

	"crypto-alerts-bot/internal/commands"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
	// RatePerSecond and RateBurst bound how many commands one user may send
	RatePerSecond float64
	RateBurst     int
}

// Dispatcher runs a parsed command and reports whether it was recognised
type Dispatcher interface {
	Dispatch(ctx context.Context, req commands.Request) bool
}
