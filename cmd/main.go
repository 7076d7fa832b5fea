package main

import "crypto-alerts-bot/internal/cli"

func main() {
	cli.Execute()
}
