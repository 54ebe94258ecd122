// Command schemaforge compiles annotated type declarations into a GraphQL
// schema and evaluates subscription filters against change events.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/schemaforge/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err == nil {
		return
	}

	// Subcommands silence cobra's own reporting; stdout keeps the formatted
	// result and stderr gets the summary.
	fmt.Fprintln(os.Stderr, "Error:", err)
	stop()
	os.Exit(cli.GetExitCode(err))
}
