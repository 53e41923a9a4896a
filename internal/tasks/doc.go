// Package tasks orchestrates the transfer pipeline with real-time progress
// reporting.
//
// [TransferEngine.Run] drives a full run: export the selected Spotify
// library, resolve it, persist the cache, and upload the assembled backup
// to Musi.
//
// # Core Operation
//
// [Resolver.Resolve] takes the exported Spotify library and resolves every
// unique track against YouTube Music:
//
//  1. Deduplicate tracks by identity across the liked library and all
//     playlists, so a track appearing in five playlists is searched once.
//  2. Fan resolution out across a bounded worker pool with rate limiting.
//  3. Per track: consult the cache, else search, rank candidates by
//     [Score], and accept the best candidate at or above the threshold.
//  4. Reassemble the liked library and playlists in source order from the
//     per-track outcomes.
//
// A single track's failure (network error, malformed response, missing
// overlay) is contained at that track's boundary and reported as an
// unresolved outcome; it never aborts sibling work.
//
// # Progress Reporting
//
// Operations emit [ProgressUpdate] values on an optional channel. Sends are
// non-blocking (select with default) so a slow or absent consumer never
// stalls resolution.
package tasks
