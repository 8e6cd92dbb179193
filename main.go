package main

import (
	"fmt"
	"os"

	"github.com/tphakala/orderlens/cmd"
	"github.com/tphakala/orderlens/internal/app"
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	ctx := app.NewContext()

	rootCmd := cmd.RootCommand(ctx)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
