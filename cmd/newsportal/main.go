package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/newsportal/internal/app"
)

func main() {
	args := os.Args[1:]
	if err := app.Run(os.Stdout, args); err != nil {
		// CLIのエラーは表示済み
		if app.ParseCommand(args) != app.CommandCLI {
			fmt.Fprintf(os.Stderr, "newsportal: %v\n", err)
		}
		os.Exit(1)
	}
}
