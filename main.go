package main

import (
	"fmt"
	"os"

	"github.com/oakwood-commons/jsondash/cmd"
	"github.com/oakwood-commons/jsondash/pkg/logger"
)

func main() {
	exitCode := 0
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		exitCode = cmd.ExitCode(err)
	}

	logger.Sync()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
