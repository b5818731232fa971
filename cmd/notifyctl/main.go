// Package main is the entrypoint for the notifyctl CLI.
package main

import "github.com/aiinterface/notifier/internal/cli"

func main() {
	cli.Execute()
}
