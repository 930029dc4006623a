package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mcb/internal/formatter"
	"github.com/desertthunder/mcb/internal/models"
)

var (
	_ list.Item = trackItem{}
)

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track   models.Track
	playing bool
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Artists }
func (i trackItem) Title() string {
	if i.playing {
		return "▶ " + i.track.Title
	}
	return i.track.Title
}
func (i trackItem) Description() string {
	desc := i.track.Artists
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	if i.track.Duration > 0 {
		desc = fmt.Sprintf("%s • %s", desc, formatter.FormatDuration(i.track.Duration))
	}
	return desc
}
