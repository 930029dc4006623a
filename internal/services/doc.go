// Package services implements the HTTP adapters for the remote data the catalog browser consumes.
//
// # Sheets
//
// [SheetService] implements fetch.Provider over the Google Sheets values API. A source is a sheet range such as
// "Main Catalog!A:Q"; the response's values array becomes the row-set, header first.
//
// # Connect
//
// [ConnectService] reads playlists and the track catalog from the connect API, authenticating with the
// "connect.sid" session cookie when one is configured.
//
// # Rate limiting
//
// Every request waits on a shared [rate.Limiter] so bursts of refreshes cannot flood the remote.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : transport failure or non-2xx status
//   - [shared.ErrPlaylistNotFound] : playlist ID not found
package services
