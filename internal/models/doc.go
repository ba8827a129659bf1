// Package models defines the entities of the ytmp playback service.
//
//   - [Track] : a playable file, identified by its path
//   - [Playlist] : an ordered, named list of tracks with a UUID
//   - [Collection] : every playlist plus the optional active playlist id, persisted as one JSON document
//   - [Download] : a download ledger row kept in SQLite
//
// Values are plain structs; the store hands out deep copies via the Clone methods so callers never
// alias persisted state.
package models
