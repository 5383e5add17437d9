// Package main is the single-binary entrypoint for Kidzy.
// Kidzy keeps a family's K$ ledger: behaviors, wishes, streaks and challenges.
package main

import "github.com/kidzy-family/kidzy/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
