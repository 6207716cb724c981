package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"vincit.fi/photo-gallery/backend"
	"vincit.fi/photo-gallery/common"
	"vincit.fi/photo-gallery/common/logger"
)

const usage = `Usage: gallery [flags] <command> [arguments]

Commands:
  folders                      list folders
  images [folder]              list images of a folder or all images
  create <name>                create a folder
  delete <name>                delete a folder and its images
  rename <old> <new>           rename a folder
  move <folder> <ref>...       move images to a folder, creating it if needed
  delete-image <ref>           delete an image
  approve <token>              approve a pending deletion (shell only)
  deny <token>                 deny a pending deletion (shell only)
  grant <directory>            use an external directory as storage
  release                      go back to the local photos root
  scan [path]...               re-index paths of the photos root
  shell                        read commands from standard input
`

func main() {
	params, err := common.ParseParams(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		fmt.Fprint(os.Stderr, usage)
		return
	} else if err != nil {
		os.Exit(2)
	}
	logger.InitializeWithWriter(logger.StringToLogLevel(params.LogLevel()), os.Stderr)

	if params.RootPath() == "" {
		fmt.Fprint(os.Stderr, "-root is required\n\n"+usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, params, os.Stdin, os.Stdout); err != nil {
		logger.Error.Print(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, params *common.Params, in io.Reader, out io.Writer) error {
	args := params.Args()
	if len(args) == 0 {
		args = []string{"folders"}
	}
	interactive := args[0] == "shell"

	stores, err := backend.InitializeStores(params)
	if err != nil {
		return err
	}
	defer stores.Close()

	brokers := backend.InitializeDevNullBrokers()
	if interactive {
		brokers = backend.InitializeEventBrokers(params.EventQueueSize())
	}
	services := backend.InitializeServices(params, stores, brokers)
	defer services.Close()
	if err := services.Start(ctx, params); err != nil {
		return err
	}

	commands := newCommands(services, out, interactive)
	if interactive {
		return runShell(ctx, commands, brokers, in, out)
	}
	return commands.execute(ctx, args)
}
