package tag

import (
	"fmt"
	"io"
	"net/http"
	"time"

	id3v2 "github.com/bogem/id3v2/v2"

	"ytaudio/internal/model"
)

// thumbnailClient bounds the cover-art fetch; art is decoration, never worth
// stalling the pipeline for.
var thumbnailClient = &http.Client{Timeout: 10 * time.Second}

const maxThumbnailBytes = 10 << 20

// Tagger writes descriptive metadata into a finished audio file.
type Tagger struct{}

func New() Tagger {
	return Tagger{}
}

// Apply writes title/artist/album (and cover art where the container
// supports it) into the file at path. It never fails the caller: every
// problem is returned as a warning string and the file is left as-is or
// partially tagged. Formats without a tag namespace are a silent no-op.
func (Tagger) Apply(path string, desc model.MediaDescriptor, kind model.FormatKind) []string {
	switch kind {
	case model.FormatMP3:
		return tagMP3(path, desc)
	case model.FormatWAV:
		return tagWAV(path, desc)
	default:
		return nil
	}
}

func tagMP3(path string, desc model.MediaDescriptor) []string {
	var warnings []string

	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return []string{fmt.Sprintf("could not tag %s: %v", path, err)}
	}
	defer t.Close()

	t.SetDefaultEncoding(id3v2.EncodingUTF8)
	if desc.Title != "" {
		t.SetTitle(desc.Title)
	}
	if artist := desc.DisplayArtist(); artist != "" {
		t.SetArtist(artist)
	}
	if album := desc.DisplayAlbum(); album != "" {
		t.SetAlbum(album)
	}

	if desc.Thumbnail != "" {
		art, err := fetchThumbnail(desc.Thumbnail)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not fetch cover art: %v", err))
		} else {
			t.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    "image/jpeg",
				PictureType: id3v2.PTFrontCover,
				Description: "Cover",
				Picture:     art,
			})
		}
	}

	if err := t.Save(); err != nil {
		warnings = append(warnings, fmt.Sprintf("could not tag %s: %v", path, err))
	}
	return warnings
}

func tagWAV(path string, desc model.MediaDescriptor) []string {
	tags := make([]infoTag, 0, 3)
	if desc.Title != "" {
		tags = append(tags, infoTag{id: "INAM", value: desc.Title})
	}
	if artist := desc.DisplayArtist(); artist != "" {
		tags = append(tags, infoTag{id: "IART", value: artist})
	}
	if album := desc.DisplayAlbum(); album != "" {
		tags = append(tags, infoTag{id: "IPRD", value: album})
	}
	if len(tags) == 0 {
		return nil
	}
	// RIFF INFO has no cover-art slot; a thumbnail reference is ignored.
	if err := writeInfoChunk(path, tags); err != nil {
		return []string{fmt.Sprintf("could not tag %s: %v", path, err)}
	}
	return nil
}

func fetchThumbnail(url string) ([]byte, error) {
	resp, err := thumbnailClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxThumbnailBytes {
		return nil, fmt.Errorf("thumbnail exceeds %d bytes", maxThumbnailBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty thumbnail response")
	}
	return data, nil
}
