package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ngld/knossos/packages/speedmon/pkg/speed"
	"github.com/ngld/knossos/packages/speedmon/pkg/tlog"
	"github.com/ngld/knossos/packages/speedmon/pkg/transfer"
)

var copyCmd = &cobra.Command{
	Use:   "copy SRC DEST",
	Short: "Copy SRC to DEST and display the transfer speed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		resume, err := cmd.Flags().GetBool("resume")
		if err != nil {
			return err
		}

		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		return copyFile(ctx, args[0], args[1], resume, quiet)
	},
}

func init() {
	copyCmd.Flags().Bool("resume", false, "Append to DEST instead of overwriting it")
	copyCmd.Flags().BoolP("quiet", "q", false, "Hide the progress bar")
}

func getProgressBar(length int64, desc string, quiet bool) *progressbar.ProgressBar {
	if quiet || os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, desc)
}

func copyFile(ctx context.Context, src, dest string, resume, quiet bool) error {
	input, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "failed to open %s", src)
	}
	defer input.Close()

	info, err := input.Stat()
	if err != nil {
		return eris.Wrapf(err, "failed to stat %s", src)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resume {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	output, err := os.OpenFile(dest, flags, 0644)
	if err != nil {
		return eris.Wrapf(err, "failed to open %s", dest)
	}
	defer output.Close()

	var offset int64
	if resume {
		destInfo, err := output.Stat()
		if err != nil {
			return eris.Wrapf(err, "failed to stat %s", dest)
		}

		offset = destInfo.Size()
		if offset > info.Size() {
			return eris.Errorf("%s is larger than %s", dest, src)
		}

		_, err = input.Seek(offset, io.SeekStart)
		if err != nil {
			return eris.Wrapf(err, "failed to seek in %s", src)
		}
	}

	name := filepath.Base(src)
	logger := log.Logger.With().Str("transfer", name).Logger()
	ctx = tlog.WithLogger(ctx, logger)

	monitor, err := speed.New(
		speed.WithWindow(cfg.Speed.Window),
		speed.WithMinInterval(cfg.Speed.MinInterval),
		speed.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	meter := speed.NewSynchronized(monitor)

	bar := getProgressBar(info.Size(), name, quiet)
	if offset > 0 {
		_ = bar.Add64(offset)
	}

	lastPos := offset
	ctx = transfer.WithParams(ctx, transfer.Params{
		ReportInterval: cfg.ReportInterval(),
		BufferSize:     cfg.Transfer.BufferSize,
		ProgressCallback: func(p transfer.Progress) {
			bar.Describe(fmt.Sprintf("%s %s", name, transfer.FormatSpeed(p.Speed)))
			_ = bar.Add64(p.SoFar - lastPos)
			lastPos = p.SoFar
		},
	})

	done := make(chan struct{})
	defer close(done)
	go logSpeed(ctx, meter, done)

	tlog.Log(ctx).Info().Int64("size", info.Size()).Int64("offset", offset).Msg("Starting copy")
	result, err := transfer.ProgressCopier(ctx, transfer.Step{
		Description: name,
		From:        0,
		To:          1,
		Offset:      offset,
	}, info.Size(), meter, input, output)
	if err != nil {
		return err
	}

	_ = bar.Finish()
	tlog.Log(ctx).Info().Str("speed", transfer.FormatSpeed(result)).Msg("Copy finished")
	return nil
}

// logSpeed periodically logs the current speed while the copy runs in the calling goroutine
func logSpeed(ctx context.Context, lookup speed.Lookup, done <-chan struct{}) {
	ticker := clock.New().Ticker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			tlog.Log(ctx).Info().Str("speed", transfer.FormatSpeed(lookup.Speed())).Msg("Still copying")
		}
	}
}
