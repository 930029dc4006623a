// Package tasks orchestrates the multi-step operations behind the CLI and the status view.
//
// # Core Operations
//
// [Engine] ties the catalog, the player and saved playlists together:
//
//  1. [Engine.LoadRemote] : Load a remote playlist into the queue
//     - Fetches the playlist's tracks from a [PlaylistSource]
//     - Reconciles every track against the local catalog by ID; unknown tracks are dropped and logged
//     - Resets the player and replaces the queue, only when something is left
//
//  2. [Engine.SyncCatalog] : Refresh the local catalog from a [CatalogSource]
//
//  3. [Engine.SavePlaylist] / [Engine.LoadSaved] : Store the queue as a named playlist and load it back
//
//  4. [Engine.PlayRows] : Resolve sheet rows to catalog tracks and play or enqueue them
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
