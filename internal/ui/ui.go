package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hexiro/spotify-to-musi/internal/services"
	"github.com/hexiro/spotify-to-musi/internal/shared"
	"github.com/hexiro/spotify-to-musi/internal/tasks"
)

// PlaylistLister fetches the user's playlists. Satisfied by
// services.SpotifyService.
type PlaylistLister interface {
	Playlists(ctx context.Context) ([]services.SpotifySimplePlaylist, error)
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PickView ViewState = iota
	ConfirmView
	TransferView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	spotify PlaylistLister
	engine  *tasks.TransferEngine

	width  int
	height int

	picker       list.Model
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	summary      *tasks.TransferSummary
	err          error

	help help.Model
	keys keyMap
}

type playlistsFetchedMsg struct {
	playlists []services.SpotifySimplePlaylist
	err       error
}

type progressUpdateMsg tasks.ProgressUpdate

type transferCompleteMsg struct {
	summary *tasks.TransferSummary
	err     error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, spotify PlaylistLister, engine *tasks.TransferEngine) *Model {
	return &Model{
		ctx:     ctx,
		view:    PickView,
		spotify: spotify,
		engine:  engine,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by fetching playlists from Spotify.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.picker.Width() == 0 {
			m.picker.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PickView:
			return m.handlePickKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}

		items := make([]list.Item, 0, len(msg.playlists)+1)
		items = append(items, selectionItem{name: "Liked Songs", selected: true})
		for _, playlist := range msg.playlists {
			items = append(items, selectionItem{
				playlistID: playlist.ID,
				name:       playlist.Name,
				trackCount: playlist.Tracks.Total,
			})
		}

		m.picker = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.picker.Title = "Transfer to Musi"
		m.picker.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case transferCompleteMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	if m.view == PickView {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PickView:
		return m.renderPick()
	case ConfirmView:
		return m.renderConfirm()
	case TransferView:
		return m.renderTransfer()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePickKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		index := m.picker.Index()
		if item, ok := m.picker.SelectedItem().(selectionItem); ok {
			item.selected = !item.selected
			return m, m.picker.SetItem(index, item)
		}
	case "enter":
		if opts := m.selection(); opts.IncludeLiked || len(opts.PlaylistIDs) > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "esc":
		m.view = PickView
		return m, nil
	case "y":
		m.view = TransferView
		return m, m.startTransfer()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PickView
		m.summary = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		return m, nil
	}
	return m, nil
}

// selection collects the toggled rows into transfer options.
func (m *Model) selection() tasks.TransferOpts {
	var opts tasks.TransferOpts

	for _, item := range m.picker.Items() {
		selected, ok := item.(selectionItem)
		if !ok || !selected.selected {
			continue
		}
		if selected.liked() {
			opts.IncludeLiked = true
		} else {
			opts.PlaylistIDs = append(opts.PlaylistIDs, selected.playlistID)
		}
	}

	return opts
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.spotify.Playlists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) startTransfer() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progressChan := m.progressChan
	opts := m.selection()

	go func() {
		summary, err := m.engine.Run(m.ctx, opts, progressChan)
		m.summary = summary
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return transferCompleteMsg{summary: m.summary, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return transferCompleteMsg{summary: m.summary, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPick() string {
	helpKeys := []key.Binding{m.keys.toggle, m.keys.enter, m.keys.quit}
	helpView := styles.help.Render(m.help.ShortHelpView(helpKeys))
	return fmt.Sprintf("%s\n\n%s", m.picker.View(), helpView)
}

func (m *Model) renderConfirm() string {
	opts := m.selection()

	title := styles.title.Render("Transfer to Musi?")

	var info string
	if opts.IncludeLiked {
		info += "\n  • Liked Songs"
	}
	for _, item := range m.picker.Items() {
		selected, ok := item.(selectionItem)
		if ok && selected.selected && !selected.liked() {
			info += fmt.Sprintf("\n  • %s (%d tracks)", selected.name, selected.trackCount)
		}
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := styles.help.Render(m.help.ShortHelpView(helpKeys))

	return fmt.Sprintf("%s%s\n\n%s", title, info, helpView)
}

func (m *Model) renderTransfer() string {
	title := styles.title.Render("Transferring Library")

	var phase string
	switch m.progress.Phase {
	case tasks.ExportLibrary:
		phase = "Exporting from Spotify..."
	case tasks.ResolveTracks:
		phase = fmt.Sprintf("Resolving tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.AssembleLibrary:
		phase = "Assembling library..."
	case tasks.UploadBackup:
		phase = "Uploading to Musi..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Transfer failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.summary == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	record := m.summary.Record
	title := styles.ok.Render("✓ Transfer Complete!")
	info := fmt.Sprintf(
		"\nResolved: %d/%d tracks (%d from cache)\nPlaylists: %d",
		record.ResolvedTracks,
		record.TotalTracks,
		record.CachedTracks,
		record.Playlists,
	)

	if m.summary.Backup != nil {
		info += fmt.Sprintf("\n\nRestore in Musi with backup code: %s", styles.ok.Render(m.summary.Backup.Code))
	}

	var failed string
	if record.UnresolvedTracks > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Could not match %d tracks:", record.UnresolvedTracks)))
		for _, resolution := range m.summary.Resolve.Resolutions {
			if resolution.Resolved == nil {
				failed += fmt.Sprintf("\n  • %s (%s)", resolution.Track.Query(), resolution.Reason)
			}
		}
	}

	if record.TotalTracks > 0 {
		elapsed := record.CompletedAt.Sub(record.StartedAt)
		info += fmt.Sprintf("\nTook %s", shared.FormatDuration(int(elapsed.Seconds())))
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := styles.help.Render(m.help.ShortHelpView(helpKeys))

	return fmt.Sprintf("%s%s%s\n\n%s", title, info, failed, helpView)
}
