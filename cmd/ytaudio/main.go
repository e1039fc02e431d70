package main

import (
	"errors"
	"fmt"
	"os"

	"ytaudio/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		if !errors.Is(err, cli.ErrFailures) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
