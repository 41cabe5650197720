package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/huddle-api/internal/cli"
	"github.com/noah-isme/huddle-api/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cli.NewApp(cfg, nil).Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
