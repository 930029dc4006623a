package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mcb/internal/fetch"
	"github.com/desertthunder/mcb/internal/models"
)

const maxColumnWidth = 32

var _ fetch.Consumer = (*SourceView)(nil)

// Refreshable is the part of a [fetch.Coordinator] a view drives.
type Refreshable interface {
	Refresh(ctx context.Context)
	State() fetch.State
}

// SourceView displays one source's rows as a table with an optional filter.
//
// It implements [fetch.Consumer]; its methods must run on the bubbletea event loop.
type SourceView struct {
	name        string
	source      Refreshable
	rows        models.RowSet
	cols        models.Columns
	visible     models.RowSet
	placeholder fetch.Placeholder
	notice      string
	filter      string
	table       table.Model
}

// NewSourceView returns an empty view showing the loading placeholder.
func NewSourceView(name string) *SourceView {
	return &SourceView{
		name:        name,
		placeholder: fetch.PlaceholderLoading,
		table:       table.New(table.WithFocused(true), table.WithHeight(20)),
	}
}

// Attach connects the view to the coordinator feeding it.
func (v *SourceView) Attach(source Refreshable) { v.source = source }

func (v *SourceView) Name() string { return v.name }

// SetRows replaces the displayed rows. Row 0 is the header.
func (v *SourceView) SetRows(rows models.RowSet) {
	v.notice = ""
	v.rows = rows.Clone()
	v.cols = models.NewColumns(v.rows.Header())
	v.rebuild()
}

func (v *SourceView) SetPlaceholder(p fetch.Placeholder) { v.placeholder = p }

// Notify keeps the latest notification for the status line.
func (v *SourceView) Notify(message string) { v.notice = message }

func (v *SourceView) Notice() string { return v.notice }

// SetFilter keeps only rows with a field containing s, ignoring case.
func (v *SourceView) SetFilter(s string) {
	v.filter = strings.TrimSpace(s)
	v.rebuild()
}

func (v *SourceView) Filter() string { return v.filter }

// Columns returns the header of the displayed rows.
func (v *SourceView) Columns() models.Columns { return v.cols }

// Visible returns the rows that pass the filter, without the header.
func (v *SourceView) Visible() models.RowSet { return v.visible }

// Selected returns the row under the cursor.
func (v *SourceView) Selected() ([]string, bool) {
	i := v.table.Cursor()
	if i < 0 || i >= len(v.visible) {
		return nil, false
	}
	return v.visible[i], true
}

// Placeholder is what the view shows instead of a table, if anything.
func (v *SourceView) Placeholder() (fetch.Placeholder, bool) {
	if len(v.visible) > 0 {
		return 0, false
	}
	if v.filter != "" && len(v.rows.Body()) > 0 {
		return fetch.PlaceholderNoMatches, true
	}
	return v.placeholder, true
}

// Refresh asks the attached source for fresh rows.
func (v *SourceView) Refresh(ctx context.Context) {
	if v.source != nil {
		v.source.Refresh(ctx)
	}
}

func (v *SourceView) SetSize(width, height int) {
	v.table.SetWidth(width)
	v.table.SetHeight(max(height, 3))
}

func (v *SourceView) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return cmd
}

func (v *SourceView) View() string {
	if p, ok := v.Placeholder(); ok {
		return styles.help.Render(p.String())
	}
	return v.table.View()
}

func (v *SourceView) rebuild() {
	needle := strings.ToLower(v.filter)
	v.visible = nil
	for _, row := range v.rows.Body() {
		if needle == "" || rowContains(row, needle) {
			v.visible = append(v.visible, row)
		}
	}

	header := v.rows.Header()
	columns := make([]table.Column, len(header))
	for i, name := range header {
		columns[i] = table.Column{Title: name, Width: len([]rune(name))}
	}
	rows := make([]table.Row, len(v.visible))
	for r, row := range v.visible {
		cells := make(table.Row, len(columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = row[i]
				columns[i].Width = max(columns[i].Width, len([]rune(row[i])))
			}
		}
		rows[r] = cells
	}
	for i := range columns {
		columns[i].Width = min(columns[i].Width, maxColumnWidth)
	}

	cursor := v.table.Cursor()
	v.table.SetRows(nil)
	v.table.SetColumns(columns)
	v.table.SetRows(rows)
	v.table.SetCursor(min(cursor, max(len(rows)-1, 0)))
}

func rowContains(row []string, needle string) bool {
	for _, field := range row {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
