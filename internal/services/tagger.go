package services

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

// FileTagger writes cover art into FLAC and MP3 files in place.
type FileTagger struct{}

// Embed replaces the front cover of audioPath and sets its title when one is missing.
// Containers other than FLAC and MP3 return [ErrUnsupportedContainer].
func (FileTagger) Embed(audioPath string, cover []byte, title string) error {
	switch strings.ToLower(filepath.Ext(audioPath)) {
	case ".flac":
		return embedFLAC(audioPath, cover, title)
	case ".mp3":
		return embedMP3(audioPath, cover, title)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedContainer, filepath.Ext(audioPath))
	}
}

// embedFLAC rewrites the metadata blocks of a FLAC file. go-flac indexes into the frame data
// without a length check, so a file with no audio frames panics inside ParseFile.
func embedFLAC(path string, cover []byte, title string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse FLAC file: %v", r)
		}
	}()

	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	var (
		meta    []*flac.MetaDataBlock
		comment *flacvorbis.MetaDataBlockVorbisComment
	)
	for _, block := range f.Meta {
		switch block.Type {
		case flac.Picture:
			continue
		case flac.VorbisComment:
			if comment, err = flacvorbis.ParseFromMetaDataBlock(*block); err != nil {
				return fmt.Errorf("failed to parse vorbis comment: %w", err)
			}
			continue
		}
		meta = append(meta, block)
	}

	if comment == nil {
		comment = flacvorbis.New()
	}
	if existing, _ := comment.Get(flacvorbis.FIELD_TITLE); len(existing) == 0 && title != "" {
		if err := comment.Add(flacvorbis.FIELD_TITLE, title); err != nil {
			return fmt.Errorf("failed to add title: %w", err)
		}
	}
	commentBlock := comment.Marshal()
	meta = append(meta, &commentBlock)

	if len(cover) > 0 {
		picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front Cover", cover, DetectImageFormat(cover))
		if err != nil {
			return fmt.Errorf("failed to create picture metadata: %w", err)
		}
		pictureBlock := picture.Marshal()
		meta = append(meta, &pictureBlock)
	}

	f.Meta = meta
	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save FLAC file with metadata: %w", err)
	}
	return nil
}

func embedMP3(path string, cover []byte, title string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open ID3 tag: %w", err)
	}
	defer tag.Close()

	if tag.Title() == "" && title != "" {
		tag.SetTitle(title)
	}

	if len(cover) > 0 {
		encoding := id3v2.EncodingUTF8
		if tag.Version() < 4 {
			encoding = id3v2.EncodingUTF16
		}
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    encoding,
			MimeType:    DetectImageFormat(cover),
			PictureType: id3v2.PTFrontCover,
			Description: "Front Cover",
			Picture:     cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save ID3 tag: %w", err)
	}
	return nil
}

// DetectImageFormat sniffs the MIME type of an image, defaulting to JPEG.
func DetectImageFormat(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return "image/png"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif"
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
