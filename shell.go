package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/backend"
	"vincit.fi/photo-gallery/common/logger"
)

// runShell executes one command per line. Events published by the
// gallery are printed between commands.
func runShell(ctx context.Context, commands *commands, brokers *backend.Brokers, in io.Reader, out io.Writer) error {
	pending := make(chan func(), 100)
	dispatch := func(fn func()) {
		select {
		case pending <- fn:
		default:
			logger.Warn.Print("Dropping event, too many pending")
		}
	}
	flush := func() {
		for {
			select {
			case fn := <-pending:
				fn()
			default:
				return
			}
		}
	}

	broker := brokers.Broker
	defer broker.ConnectToForeground(api.ShowError, func(command *api.ErrorCommand) {
		fmt.Fprintf(out, "error: %s\n", command.Message)
	}, dispatch)()
	defer broker.ConnectToForeground(api.FoldersUpdated, func(command *api.SetFoldersCommand) {
		fmt.Fprintf(out, "folders updated: %d folders\n", len(command.Snapshot.Folders))
	}, dispatch)()
	defer broker.ConnectToForeground(api.ProcessStatusUpdated, func(command *api.UpdateProgressCommand) {
		fmt.Fprintf(out, "%s: %d/%d (%s)\n", command.Name, command.Current, command.Total,
			humanize.Bytes(uint64(command.MovedBytes)))
	}, dispatch)()
	defer broker.ConnectToForeground(api.ImageDeleteNeedsConsent, func(command *api.DeleteImageResultCommand) {
		fmt.Fprintf(out, "consent needed: %s\n", command.Outcome.Token)
	}, dispatch)()

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		flush()
		args := splitCommandLine(scanner.Text())
		if len(args) == 0 {
			fmt.Fprint(out, "> ")
			continue
		}
		if args[0] == "quit" || args[0] == "exit" {
			return nil
		}
		if err := commands.execute(ctx, args); err != nil {
			fmt.Fprintf(out, "%s\n", err)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}
