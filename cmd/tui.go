package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/desertthunder/sortify/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI groups the library and opens the interactive playlist browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	cred, err := r.credential()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/sortify-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	pipeline, err := r.pipeline(true)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, pipeline, cred)
	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if m, ok := final.(*ui.Model); ok {
		if res := m.Result(); res != nil && res.Refreshed {
			if err := r.saveCredential(res.Credential); err != nil {
				return err
			}
		}
	}

	return nil
}
