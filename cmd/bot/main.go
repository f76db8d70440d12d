package main

import (
	"fmt"
	"os"

	"github.com/kapu/duty-rotation-bot/pkg/errors"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errors.ExitCode(err))
	}
}
