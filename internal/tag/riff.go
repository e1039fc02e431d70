package tag

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// infoTag is one RIFF INFO sub-chunk: a FourCC id and a text value.
type infoTag struct {
	id    string
	value string
}

// writeInfoChunk appends a LIST/INFO chunk carrying the given tags to the
// WAV file at path and fixes up the top-level RIFF size. Values are written
// NUL-terminated and padded to even length per the RIFF chunk rules.
func writeInfoChunk(path string, tags []infoTag) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("read RIFF header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return fmt.Errorf("not a RIFF/WAVE file")
	}

	payload := buildInfoPayload(tags)

	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	chunk := make([]byte, 0, 8+len(payload))
	chunk = append(chunk, []byte("LIST")...)
	chunk = binary.LittleEndian.AppendUint32(chunk, uint32(len(payload)))
	chunk = append(chunk, payload...)
	if _, err := f.Write(chunk); err != nil {
		return fmt.Errorf("append LIST chunk: %w", err)
	}

	newSize := uint32(end + int64(len(chunk)) - 8)
	var sizeField [4]byte
	binary.LittleEndian.PutUint32(sizeField[:], newSize)
	if _, err := f.WriteAt(sizeField[:], 4); err != nil {
		return fmt.Errorf("update RIFF size: %w", err)
	}
	return nil
}

func buildInfoPayload(tags []infoTag) []byte {
	var buf bytes.Buffer
	buf.WriteString("INFO")
	for _, t := range tags {
		value := append([]byte(t.value), 0)
		buf.WriteString(t.id)
		_ = binary.Write(&buf, binary.LittleEndian, uint32(len(value)))
		buf.Write(value)
		if len(value)%2 == 1 {
			buf.WriteByte(0)
		}
	}
	return buf.Bytes()
}

// readInfoTags parses the first LIST/INFO chunk in the WAV at path. Used by
// tests to verify round-trips; tolerant of files without an INFO chunk.
func readInfoTags(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	tags := make(map[string]string)
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			break
		}
		if id == "LIST" && size >= 4 && string(data[body:body+4]) == "INFO" {
			parseInfoBody(data[body+4:body+size], tags)
		}
		off = body + size
		if size%2 == 1 {
			off++
		}
	}
	return tags, nil
}

func parseInfoBody(body []byte, tags map[string]string) {
	off := 0
	for off+8 <= len(body) {
		id := string(body[off : off+4])
		size := int(binary.LittleEndian.Uint32(body[off+4 : off+8]))
		start := off + 8
		if start+size > len(body) {
			return
		}
		tags[id] = string(bytes.TrimRight(body[start:start+size], "\x00"))
		off = start + size
		if size%2 == 1 {
			off++
		}
	}
}
