package main

import (
	"logistics/cmd"

	"github.com/labstack/gommon/log"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		log.Fatalf("logistics: %v", err)
	}
}
