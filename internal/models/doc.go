// Package models defines the domain entities exchanged between the catalog client, the selection service and the HTTP boundary.
//
// The package contains two categories of types:
//
// 1. Catalog DTOs: lightweight structs mapped from catalog API responses
//   - [TrackSummary] : one playlist entry, possibly without a preview URL
//   - [PlaylistSummary] : playlist metadata shown before a game starts
//
// 2. Game entities: values produced while serving a round
//   - [AccessToken] : bearer credential with its local expiry
//   - [PlaylistCacheEntry] : deduplicated playlist snapshot with TTL
//   - [SelectionResult] : the playable round returned to the browser
//   - [PlaylistExport] : playlist snapshot written to disk by the CLI
//
// Nothing in this package is persisted by the server.
package models
