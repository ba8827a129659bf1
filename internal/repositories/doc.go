// Package repositories implements persistence for playlists and downloads.
//
// Key Implementations:
//   - [PlaylistStore] : the playlist collection as a single JSON document, rewritten atomically on every mutation
//   - [DownloadRepository] : the SQLite download ledger keyed by remote id
//
// The playlist document is portable: track and thumbnail paths inside the media root are stored relative to it,
// and on load stale paths are repaired by searching the root for a file with the same name.
//
// Every [PlaylistStore] mutation is applied to a copy of the collection and only committed in memory once the
// document has been saved, so a failed write never leaves memory and disk out of step.
package repositories
