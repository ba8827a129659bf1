// Package services wraps the external collaborators of the download pipeline.
//
// # Fetching
//
// [YtdlpFetcher] implements [Fetcher] on top of the yt-dlp binary through go-ytdlp. A bare
// video id is expanded to a watch URL; full URLs are passed through. yt-dlp's
// "Requested format is not available" failure is reported as [ErrFormatUnavailable] so callers
// can skip pointless retries.
//
// # Artwork
//
// [ArtworkClient] downloads a cover image with its own timeout and re-encodes it as a JPEG no
// larger than the configured edge. WebP covers are decoded through golang.org/x/image.
//
// # Tagging
//
// [FileTagger] embeds the cover as the front picture:
//   - FLAC: VORBIS_COMMENT and PICTURE blocks via go-flac
//   - MP3: APIC frame via id3v2
//
// Other containers return [ErrUnsupportedContainer]; callers treat that as a skip.
package services
