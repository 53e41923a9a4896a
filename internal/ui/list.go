package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = selectionItem{}

// selectionItem is one toggleable row in the pick view: the liked songs
// library or a single playlist.
type selectionItem struct {
	playlistID string // empty for the liked songs library
	name       string
	trackCount int
	selected   bool
}

func (i selectionItem) liked() bool { return i.playlistID == "" }

func (i selectionItem) FilterValue() string { return i.name }

func (i selectionItem) Title() string {
	mark := "[ ]"
	if i.selected {
		mark = "[x]"
	}
	return fmt.Sprintf("%s %s", mark, i.name)
}

func (i selectionItem) Description() string {
	if i.liked() {
		return "your liked songs"
	}
	return fmt.Sprintf("%d tracks", i.trackCount)
}
