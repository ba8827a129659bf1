// Package tasks orchestrates downloads with real-time progress reporting.
//
// # Download Orchestrator
//
// [DownloadEngine] handles one "downloadyt" request per worker goroutine:
//
//  1. Check the ledger. A completed download whose file still exists is served from disk.
//  2. Fetch the audio through [services.Fetcher], retrying with backoff. A format that is not
//     available is reported at once.
//  3. Fetch the artwork with its own timeout, store it as "<stem>.jpg" beside the audio and
//     embed it through [services.Tagger]. None of this can fail the download.
//  4. Report the outcome to the UI through the [Notifier].
//
// Failures emit a data_info line, a negative file_is_downloaded with a reason of
// "format_unavailable" or "failed", and a controls event re-enabling play.
//
// Download starts are throttled with a token bucket (golang.org/x/time/rate).
//
// # Progress Reporting
//
// [DownloadEngine.Run] accepts an optional channel of [ProgressUpdate]. Updates use select with
// default so a slow reader never stalls a download. [DownloadEngine.Start] logs them at debug level.
package tasks
