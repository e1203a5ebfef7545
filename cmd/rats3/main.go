package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linusboehm/rats3/internal/app"
	"github.com/linusboehm/rats3/internal/backend"
	"github.com/linusboehm/rats3/internal/config"
	"github.com/linusboehm/rats3/internal/history"
	"github.com/linusboehm/rats3/internal/logging"
	"github.com/linusboehm/rats3/internal/state"
)

const usageText = `rats3 browses a local directory tree or an S3 bucket.

Usage:
  rats3 [location]

Location:
  a directory path, local://<path>, or s3://<bucket>[/prefix].
  With no location the last visited one is reopened.

Flags:
  -h, --help   show help
  --version    print version

Examples:
  rats3 .
  rats3 s3://my-bucket/logs
`

const version = "dev"

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	showVersion := flag.Bool("version", false, "print version")
	flag.Parse()
	if *showVersion {
		fmt.Println("rats3 " + version)
		return
	}
	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "rats3: "+err.Error())
		os.Exit(1)
	}
}

func run(location string) error {
	ctx := context.Background()

	cfg, cfgErr := config.Load()

	logger := logging.Nop()
	if logPath, err := config.LogPath(); err == nil {
		if fileLogger, closer, err := logging.NewFile(logPath, logging.ParseLevel(cfg.LogLevel())); err == nil {
			logger = fileLogger
			defer closer.Close()
		}
	}
	if cfgErr != nil {
		logger.Warn("config load failed, using defaults", logging.F("err", cfgErr))
	}

	var store state.Store
	snap := &state.Snapshot{}
	if statePath, err := config.StatePath(); err == nil {
		store, err = state.NewBboltStore(statePath)
		if err != nil {
			logger.Warn("state db unavailable", logging.F("err", err))
			store = nil
		}
	}
	if store != nil {
		defer store.Close()
		loaded, err := store.Load(ctx)
		if err != nil {
			logger.Warn("state restore failed", logging.F("err", err))
		} else {
			snap = loaded
		}
	}

	if location == "" {
		location = snap.LastLocation
	}
	if location == "" {
		location = "."
	}

	be, root, err := newBackend(ctx, location, cfg, logger)
	if err != nil {
		return err
	}

	hist := history.NewStore(0)
	hist.Replace(snap.History)

	model := app.New(be, cfg, root, hist, logger)
	if cfgErr != nil {
		model.SetStartupWarning("config malformed, using defaults")
	}

	program := tea.NewProgram(model, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	if store != nil {
		finalModel, ok := final.(*app.Model)
		if ok {
			err := store.Save(ctx, &state.Snapshot{
				LastLocation: finalModel.Location(),
				History:      finalModel.History(),
			})
			if err != nil {
				logger.Warn("state save failed", logging.F("err", err))
			}
		}
	}
	return nil
}

// newBackend picks the backend from the location scheme. The choice is
// made once; there is no mid-session switching.
func newBackend(ctx context.Context, location string, cfg config.Config, logger logging.Logger) (backend.Backend, string, error) {
	if strings.HasPrefix(location, "s3://") {
		bucket, prefix, err := backend.ParseS3URI(location)
		if err != nil {
			return nil, "", err
		}
		remote, err := backend.NewRemote(ctx, bucket, cfg.MaxListPages(), logger)
		if err != nil {
			return nil, "", err
		}
		return remote, prefix, nil
	}

	path := strings.TrimPrefix(location, "local://")
	local, err := backend.NewLocal(path, logger)
	if err != nil {
		return nil, "", err
	}
	return local, "", nil
}
