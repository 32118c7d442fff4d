package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sortify/internal/formatter"
	"github.com/desertthunder/sortify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Group runs the pipeline with the stored credential and prints the playlists.
//
// An expired credential is refreshed first and the new tokens are written back to the config.
func (r *Runner) Group(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if n := cmd.Int("clusters"); n > 0 {
		r.config.Grouping.Clusters = n
	}
	if n := cmd.Int("workers"); n > 0 {
		r.config.Grouping.Workers = n
	}

	cred, err := r.credential()
	if err != nil {
		return err
	}

	pipeline, err := r.pipeline(true)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	result, err := pipeline.Run(ctx, cred, progress)
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("grouping failed: %w", err)
	}

	if result.Refreshed {
		if err := r.saveCredential(result.Credential); err != nil {
			r.logger.Warn("failed to save refreshed credential", "error", err)
		}
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(result.Grouping, format, path); err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d playlists to %s\n", len(result.Grouping.Playlists), path)
	}

	data, err := formatter.Export(result.Grouping, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
