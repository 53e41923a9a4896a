// Package server runs the temporary localhost HTTP server that completes
// the Spotify authorization flow.
//
// During login the CLI opens the user's browser at Spotify's consent page.
// Spotify redirects back to the configured localhost URI, where
// [OAuthHandler] validates the state parameter, exchanges the
// authorization code for tokens, and delivers the result on a channel. The
// handler processes exactly one callback; replays get a 400.
//
// [CallbackServer] wraps the handler in an [http.Server] bound to the
// redirect URI's host and port, with request logging, and shuts down once
// the flow completes or the context expires.
package server
