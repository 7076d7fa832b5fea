package commands

import (
	"context"
	"fmt"
	"strings"

	"crypto-alerts-bot/lib/translation"
)

// MenuEntry is one command shown in the chat client's command menu
type MenuEntry struct {
	Command     string
	Description string
}

// Menu lists the commands registered with the chat client at startup
func Menu() []MenuEntry {
	return []MenuEntry{
		{Command: "start", Description: translation.Translate("Starts the bot")},
		{Command: "help", Description: translation.Translate("Show some help")},
		{Command: "price", Description: translation.Translate("Get the price of a cryptocurrency")},
		{Command: "plot", Description: translation.Translate("Plot the price evolution of a cryptocurrency")},
		{Command: "addalert", Description: translation.Translate("Add an alert for a cryptocurrency price")},
		{Command: "listalerts", Description: translation.Translate("List all your active alerts")},
		{Command: "removealert", Description: translation.Translate("Remove an alert")},
		{Command: "clearalerts", Description: translation.Translate("Clear all your alerts")},
		{Command: "listusers", Description: translation.Translate("List all users with alerts")},
	}
}

func helpText() string {
	lines := []string{
		translation.Translate("Available commands:"),
		"/start - " + translation.Translate("Start the bot"),
		"/help - " + translation.Translate("Show this help message"),
		"/price <coin> - " + translation.Translate("Get the price of a cryptocurrency"),
		"/plot <coin> - " + translation.Translate("Plot the price evolution of a cryptocurrency (last 30 days)"),
		"/addalert <crypto> <above/below> <target_price> - " + translation.Translate("Set an alert for a cryptocurrency price"),
		"/listalerts - " + translation.Translate("List all your active alerts"),
		"/removealert <crypto> <above/below> <target_price> - " + translation.Translate("Remove an alert"),
		"/clearalerts - " + translation.Translate("Clear all your alerts"),
		"/listusers - " + translation.Translate("List all users with alerts"),
	}
	return strings.Join(lines, "\n")
}

func (r *Router) start(_ context.Context, req Request) error {
	r.deps.reply(req.ChatID, translation.Translate("Welcome to the Crypto Prices Bot! Use /help to see available commands."))
	return nil
}

func (r *Router) help(_ context.Context, req Request) error {
	r.deps.reply(req.ChatID, helpText())
	return nil
}

func usage(format string) string {
	return fmt.Sprintf("%s %s", translation.Translate("Usage:"), format)
}
