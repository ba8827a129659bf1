// Package metrics provides Prometheus instrumentation for the ytmp service.
//
// All metrics are registered on the default registry at init and prefixed with "ytmp_".
//
// ## Channel Metrics
//   - MessagesReceived, MessagesRejected: inbound commands by kind and by drop reason
//   - EventsEmitted, EventsDropped: outbound events by kind and queue overflow drops
//
// ## Playback Metrics
//   - TracksLoaded: load results
//   - AutoAdvances: end-of-track advances
//   - PlaybackState: the engine state as a gauge
//
// ## Download Metrics
//   - DownloadsTotal, DownloadDuration, DownloadsInFlight
//
// ## Store Metrics
//   - PlaylistSaves: playlist document saves by result
//
// ## Status Endpoint Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration: requests by method, route and status
//
// Metrics are exposed by [Handler] on the status endpoint's /metrics route.
package metrics
