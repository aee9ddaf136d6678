// Package realtime is the client side of TeamVerse chat and notification
// delivery. It keeps one push connection per session, tracks which
// channels are joined, folds inbound events into local state with id
// de-duplication, submits messages over REST and mirrors them onto the
// push channel, and synchronises notification read state.
//
// Nothing here is a package-level singleton: a Client owns one instance of
// each component and the caller owns the Client.
package realtime

import "errors"

var (
	// ErrNotConnected is returned by Emit while no socket is up.
	ErrNotConnected = errors.New("push connection not established")

	// ErrNoSession means no valid session identity is available.
	ErrNoSession = errors.New("no session identity")

	// ErrEmptyMessage rejects a draft with neither text nor attachment.
	ErrEmptyMessage = errors.New("message needs text or an attachment")

	// ErrChannelRequired rejects operations without a channel id.
	ErrChannelRequired = errors.New("channel id is required")

	// ErrPersonalChannel is returned when leaving the personal channel.
	ErrPersonalChannel = errors.New("personal notification channel cannot be left")
)
