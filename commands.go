package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/backend"
)

var (
	errFailed            = errors.New("command failed")
	errConsentNeedsShell = errors.New("consent tokens live only as long as the process that issued them; use the shell to approve or deny deletions")
)

type commands struct {
	service api.GalleryService
	scanner api.MediaScanner
	root    string
	out     io.Writer
	// interactive is set for the shell, the only mode where a consent
	// token outlives the command that issued it.
	interactive bool
}

func newCommands(services *backend.Services, out io.Writer, interactive bool) *commands {
	return &commands{
		service:     services.GalleryService,
		scanner:     services.MediaScanner,
		root:        services.Locator.LocalTree().Root(),
		out:         out,
		interactive: interactive,
	}
}

func (s *commands) execute(ctx context.Context, args []string) error {
	name, rest := args[0], args[1:]
	switch name {
	case "folders":
		s.printFolders(s.service.LoadFolders(ctx))
	case "images":
		if len(rest) > 0 {
			s.printImages(s.service.LoadImagesFromFolder(ctx, &api.FolderQuery{Name: rest[0]}))
		} else {
			s.printImages(s.service.LoadImages(ctx))
		}
	case "create":
		if len(rest) != 1 {
			return wrongArguments(name)
		}
		return s.result(s.service.CreateFolder(ctx, &api.CreateFolderCommand{Name: rest[0]}))
	case "delete":
		if len(rest) != 1 {
			return wrongArguments(name)
		}
		return s.result(s.service.DeleteFolder(ctx, &api.DeleteFolderCommand{Name: rest[0]}))
	case "rename":
		if len(rest) != 2 {
			return wrongArguments(name)
		}
		return s.result(s.service.RenameFolder(ctx, &api.RenameFolderCommand{OldName: rest[0], NewName: rest[1]}))
	case "move":
		if len(rest) < 2 {
			return wrongArguments(name)
		}
		return s.move(ctx, rest[0], rest[1:])
	case "delete-image":
		if len(rest) != 1 {
			return wrongArguments(name)
		}
		ref, ok := apitype.ParseImageRef(rest[0])
		if !ok {
			return fmt.Errorf("invalid image '%s'", rest[0])
		}
		return s.outcome(s.service.DeleteImage(ctx, &api.DeleteImageCommand{Ref: ref}))
	case "approve", "deny":
		if !s.interactive {
			return errConsentNeedsShell
		}
		if len(rest) != 1 {
			return wrongArguments(name)
		}
		return s.outcome(s.service.ResolveConsent(ctx, &api.ResolveConsentCommand{
			Token:    apitype.ConsentToken(rest[0]),
			Approved: name == "approve",
		}))
	case "grant":
		if len(rest) != 1 {
			return wrongArguments(name)
		}
		return s.result(s.service.SetExternalGrant(ctx, rest[0]))
	case "release":
		s.service.ClearExternalGrant(ctx)
	case "scan":
		paths := rest
		if len(paths) == 0 {
			paths = []string{s.root}
		}
		return s.scanner.Scan(ctx, "", paths...)
	default:
		return fmt.Errorf("unknown command '%s'", name)
	}
	return nil
}

func (s *commands) move(ctx context.Context, folder string, values []string) error {
	selection := make([]apitype.ImageRef, 0, len(values))
	for _, value := range values {
		ref, ok := apitype.ParseImageRef(value)
		if !ok {
			return fmt.Errorf("invalid image '%s'", value)
		}
		selection = append(selection, ref)
	}

	success, report := s.service.MoveImagesToFolder(ctx, &api.MoveImagesCommand{Selection: selection, Folder: folder})
	if report != nil {
		var bytes int64
		for _, result := range report.Results {
			fmt.Fprintf(s.out, "%s\t%s\t%s\n", result.State, result.Source, result.Destination)
			if result.State.Moved() {
				bytes += result.Bytes
			}
		}
		fmt.Fprintf(s.out, "%s: %d/%d images, %s\n",
			report.Outcome(), report.MovedCount(), len(report.Results), humanize.Bytes(uint64(bytes)))
	}
	return s.result(success)
}

func (s *commands) outcome(outcome apitype.DeleteOutcome) error {
	switch outcome.Status {
	case apitype.Deleted:
		fmt.Fprintf(s.out, "deleted %s\n", outcome.Ref)
	case apitype.NeedsUserConsent:
		if s.interactive {
			fmt.Fprintf(s.out, "deleting %s needs consent: approve %s\n", outcome.Ref, outcome.Token)
		} else {
			fmt.Fprintf(s.out, "deleting %s needs consent: run delete-image in the shell to approve it\n", outcome.Ref)
		}
	default:
		return fmt.Errorf("could not delete %s: %w", outcome.Ref, outcome.Err)
	}
	return nil
}

func (s *commands) printFolders(snapshot *apitype.FoldersSnapshot) {
	for _, folder := range snapshot.Folders {
		thumbnail := "-"
		if folder.HasThumbnail() {
			thumbnail = folder.Thumbnail.String()
		}
		fmt.Fprintf(s.out, "%s\t%d\t%s\n", folder.Name, folder.ImageCount, thumbnail)
	}
}

func (s *commands) printImages(snapshot *apitype.ImagesSnapshot) {
	for _, image := range snapshot.Images {
		fmt.Fprintln(s.out, image.String())
	}
}

func (s *commands) result(success bool) error {
	if !success {
		return errFailed
	}
	fmt.Fprintln(s.out, "ok")
	return nil
}

func wrongArguments(command string) error {
	return fmt.Errorf("wrong number of arguments for '%s'", command)
}

func splitCommandLine(line string) []string {
	return strings.Fields(line)
}
