// Package main provides the starload CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/starload/internal/cli"
	"github.com/leapstack-labs/starload/pkg/core"
)

// Exit codes by error kind.
const (
	exitFailure    = 1
	exitConfig     = 2
	exitConnection = 3
	exitStatement  = 4
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch core.KindOf(err) {
	case core.KindConfig:
		return exitConfig
	case core.KindConnection:
		return exitConnection
	case core.KindStatement:
		return exitStatement
	default:
		return exitFailure
	}
}
