// Package repositories implements SQLite persistence for the local catalog and saved playlists.
//
// Key Implementations:
//   - [TrackRepository] : the authoritative track catalog, upserted from the remote catalog listing
//   - [PlaylistRepository] : named queue snapshots stored as ordered track IDs
//
// Schemas live in the embedded migrations of the shared package; callers run [shared.RunMigrations] first.
package repositories
