// # cmd/modshift/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := newCLI(os.Stdout, os.Stderr)
	if err := cli.Command().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "modshift: %v\n", err)
		if cli.exitCode == 0 {
			cli.exitCode = 1
		}
	}
	stop()
	os.Exit(cli.exitCode)
}
