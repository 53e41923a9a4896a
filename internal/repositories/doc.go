// Package repositories implements persistence for resolved tracks and
// transfer history.
//
// Key Implementations:
//   - [TrackCache] : JSON-file memoization of track resolutions, keyed by
//     source identity and deduplicated by video ID
//   - [TransferRepository] : SQLite-backed transfer run history
//
// The track cache is loaded once at startup and flushed once at the end of
// a run; in between, lookups and records are in-memory and safe for
// concurrent use by the resolution worker pool.
package repositories
