package main

import (
	"github.com/fleetdesk/taxi/cmd"
	"github.com/fleetdesk/taxi/internal/config"
)

func main() {
	if err := cmd.Execute(); err != nil {
		config.Exitf("taxi: %v", err)
	}
}
