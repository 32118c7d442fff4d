package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	PlaylistListView
	TrackListView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	runner       tasks.Runner
	cred         models.Credential
	view         ViewState
	width        int
	height       int
	spinner      spinner.Model
	progressChan chan tasks.ProgressUpdate
	doneChan     chan groupingResult
	progress     tasks.ProgressUpdate
	result       *tasks.Result
	err          error
	playlistList list.Model
	trackList    list.Model
	selected     models.Playlist
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI model that groups the library behind cred.
func NewModel(ctx context.Context, runner tasks.Runner, cred models.Credential) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.ok

	return &Model{
		ctx:     ctx,
		runner:  runner,
		cred:    cred,
		view:    LoadingView,
		spinner: s,
		// Lists exist before the first result so an early WindowSizeMsg can size them.
		playlistList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		trackList:    list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Result returns the last pipeline result, nil until a run succeeds.
func (m *Model) Result() *tasks.Result { return m.result }

// Err returns the error of the last run.
func (m *Model) Err() error { return m.err }

// Init starts the pipeline.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startGrouping())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoadingView:
			return m.handleLoadingKeys(msg)
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != LoadingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgGroupingComplete:
		res := msg.data.(groupingResult)
		m.progressChan = nil
		m.doneChan = nil
		m.err = res.err
		if res.err != nil {
			return m, nil
		}

		m.result = res.result
		if res.result.Credential.AccessToken != "" {
			m.cred = res.result.Credential
		}
		m.playlistList = list.New(playlistItems(res.result.Grouping), list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = fmt.Sprintf("%d tracks grouped", res.result.Grouping.TrackCount())
		m.playlistList.SetSize(m.width-4, m.height-8)
		m.view = PlaylistListView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return m.renderLoading()
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	default:
		return ""
	}
}

func (m *Model) handleLoadingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.retry) && m.err != nil:
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		return m, tea.Batch(m.spinner.Tick, m.startGrouping())
	}
	return m, nil
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.retry):
		m.view = LoadingView
		m.progress = tasks.ProgressUpdate{}
		return m, tea.Batch(m.spinner.Tick, m.startGrouping())
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.selected = pl.playlist
			m.trackList = list.New(trackItems(pl.playlist), list.NewDefaultDelegate(), 0, 0)
			m.trackList.Title = pl.Title()
			m.trackList.SetSize(m.width-4, m.height-8)
			m.view = TrackListView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

// startGrouping runs the pipeline in the background. The result arrives on doneChan
// after progressChan is closed.
func (m *Model) startGrouping() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan groupingResult, 1)
	m.progressChan = progress
	m.doneChan = done

	ctx, runner, cred := m.ctx, m.runner, m.cred
	go func() {
		result, err := runner.Run(ctx, cred, progress)
		done <- groupingResult{result: result, err: err}
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		if progress == nil {
			return nil
		}

		update, ok := <-progress
		if !ok {
			res := <-done
			return groupingCompleteMsg(res.result, res.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderLoading() string {
	title := styles.title.Render("sortify")

	if m.err != nil {
		body := styles.err.Render(fmt.Sprintf("Grouping failed: %v", m.err))
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.retry, m.keys.quit})
		return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
	}

	msg := m.progress.Message
	if msg == "" {
		msg = "Starting..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s %s\n", title, m.spinner.View(), msg)
	if m.progress.Total > 0 && m.progress.Phase != tasks.Complete {
		fmt.Fprintf(&b, "%s\n", styles.help.Render(fmt.Sprintf("%s %d/%d", m.progress.Phase, m.progress.Step, m.progress.Total)))
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.retry, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	summary := ""
	if g := m.result.Grouping; len(g.NotIncluded) > 0 {
		summary = "\n" + styles.warn.Render(fmt.Sprintf("%d tracks had no audio features", len(g.NotIncluded)))
	}
	return fmt.Sprintf("%s%s\n\n%s", m.playlistList.View(), summary, helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	mood := ""
	if m.selected.Mood != "" {
		mood = styles.mood.Render(m.selected.Mood) + "\n"
	}
	return fmt.Sprintf("%s%s\n\n%s", mood, m.trackList.View(), helpView)
}
