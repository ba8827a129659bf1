// Package remote is a small UI-side client for the playback service.
//
// It sends commands to the service's command port and reads events from the event port, and
// implements the resume handshake: after (re)attaching, ask "are we playing?" and poll for the
// reply, falling back to idle when the service does not answer in time.
package remote
