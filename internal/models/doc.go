// Package models defines the domain entities shared across the transfer
// pipeline.
//
// The package contains three categories of types:
//
// 1. Source library types, built from Spotify exports:
//   - [Artist] : A single credited artist
//   - [Track] : A normalized song with identity semantics
//   - [Playlist] : A named, ordered collection of tracks
//
// 2. Resolution types, produced by matching tracks against YouTube Music:
//   - [ResolvedTrack] : A source track paired with its YouTube video
//   - [ResolvedPlaylist] : A playlist whose tracks survived resolution
//
// 3. History types, persisted to the local database:
//   - [TransferRecord] : Summary of one completed transfer run
//
// Track identity is the triple (name, duration, artists). Album name and
// the explicit flag refine match scoring but never identity, so the same
// recording on an album and a compilation resolves once.
package models
