// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for a library transfer:
//  1. [PickView] : Browse Spotify playlists and toggle what to transfer
//  2. [ConfirmView] : Confirm the selection
//  3. [TransferView] : Monitor real-time progress updates
//  4. [ResultView] : Display match counts, unresolved tracks, and the backup code
//
// The [Model] implements bubbletea's standard Init/Update/View pattern.
// Progress updates flow through a channel from the TransferEngine,
// providing non-blocking status reporting during transfers.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, y/n, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
