package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/nexus-trading/perf/cmd/nexus-perf/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		log.Error().Err(err).Msg("nexus-perf failed")
		os.Exit(1)
	}
}
