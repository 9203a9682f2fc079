package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

/* teamsctl runs one-off operations against the same Redis state and
 * Graph tenant as the api binary
 */

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
