// Package services implements the catalog client and the track selection service behind the game.
//
// # Catalog Client
//
// [SpotifyService] performs GET requests against the Spotify Web API with a caller-supplied bearer token: playlist
// metadata, the paginated playlist tracks listing, single-track detail and track search. It also fetches public track
// pages, which need no token.
//
// # Token Cache
//
// [TokenCache] holds one client-credentials token. The exchange goes through [clientcredentials.Config] with HTTP Basic
// auth. A fetched token is served for [DefaultTokenTTL] whatever the upstream declares, so a token close to its real
// expiry is never handed out.
//
// # Playlist Cache
//
// [PlaylistCache] stores one deduplicated snapshot per playlist for [DefaultPlaylistTTL]. A failed page discards the
// whole fetch. Concurrent misses share a single fetch through [singleflight.Group].
//
// # Preview Resolution
//
// [PreviewResolver] walks an ordered list of [Strategy] values and stops at the first hit:
//
//  1. embedded: preview_url already present in the listing
//  2. detail: preview_url from /tracks/{id}
//  3. page-regex: inline "preview_url" JSON pair on the public page
//  4. page-dom: og:audio meta, JSON-LD previewUrl, then any p.scdn.co attribute
//  5. finder: [NameFinder] with a name cache and a process-wide [rate.Limiter]
//
// # Selection
//
// [SelectionService] obtains a token and the playlist snapshot, filters out tracks the client has heard ([History]),
// and tries up to [DefaultMaxAttempts] random picks. It is the only retry point.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.UpstreamError] : non-success catalog or token response (status + body)
//   - [shared.NoPreviewError] : every attempt failed to resolve a preview
//   - [shared.ErrMissingCredentials] : client id or secret missing
//   - [shared.ErrEmptyPlaylist] : playlist has no playable tracks
package services
