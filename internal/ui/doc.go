// Package ui implements the interactive catalog browser using bubbletea's Elm architecture.
//
// The TUI shows one tab per data source plus the play queue:
//  1. [SourceView] : A table of a source's rows, fed by its [fetch.Coordinator]
//  2. Queue : The queued tracks with the active one marked
//
// Coordinators publish into views through a [fetch.Loop]. The (view) [Model] pulls batches from the loop with a
// command and runs them inside Update, so views are only ever touched from the bubbletea event loop.
// Catalog syncs report progress through a channel from the [tasks.Engine], the same way.
//
// Keyboard navigation uses vim-style bindings (j/k, tab, enter, /, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
