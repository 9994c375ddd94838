// ABOUTME: Zip export of the whole journal with a JSON manifest.
// ABOUTME: Text notes go under notes/, recordings under audio/, metadata in manifest.json.
package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389-research/memento/internal/models"
)

// ManifestName is the manifest's path inside the archive.
const ManifestName = "manifest.json"

// Manifest describes the contents of an export archive.
type Manifest struct {
	ExportID   string          `json:"exportId"`
	ExportedAt int64           `json:"exportedAt"`
	Count      int             `json:"count"`
	Entries    []ManifestEntry `json:"entries"`
}

// ManifestEntry describes one exported entry.
type ManifestEntry struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	CreatedAt  int64    `json:"createdAt"`
	File       string   `json:"file"`
	Transcript *string  `json:"transcript,omitempty"`
	Categories []string `json:"categories"`
}

// Write streams a zip archive of entries to w and returns its manifest.
func Write(w io.Writer, entries []*models.Entry, now time.Time) (*Manifest, error) {
	zw := zip.NewWriter(w)

	manifest := &Manifest{
		ExportID:   uuid.NewString(),
		ExportedAt: now.UnixMilli(),
		Count:      len(entries),
		Entries:    make([]ManifestEntry, 0, len(entries)),
	}

	for _, e := range entries {
		me, data, err := entryFile(e)
		if err != nil {
			return nil, err
		}
		if err := writeFile(zw, me.File, e.CreatedAt, data); err != nil {
			return nil, err
		}
		manifest.Entries = append(manifest.Entries, me)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := writeFile(zw, ManifestName, now, data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	return manifest, nil
}

func entryFile(e *models.Entry) (ManifestEntry, []byte, error) {
	id := exportID(e)
	categories := e.Categories
	if categories == nil {
		categories = []string{}
	}
	me := ManifestEntry{
		ID:         id,
		Type:       string(e.Kind()),
		CreatedAt:  e.CreatedAt.UnixMilli(),
		Categories: categories,
	}

	switch body := e.Body.(type) {
	case models.TextNote:
		me.File = "notes/" + id + ".txt"
		return me, []byte(body.Text), nil
	case models.AudioClip:
		me.File = "audio/" + id + "." + Extension(body.MIMEType)
		transcript := body.Transcript
		me.Transcript = &transcript
		return me, body.Data, nil
	default:
		return ManifestEntry{}, nil, fmt.Errorf("entry %s has unsupported body %T", id, e.Body)
	}
}

// exportID names an entry inside the archive. Unsaved entries fall back to
// their creation time.
func exportID(e *models.Entry) string {
	if e.ID != 0 {
		return strconv.FormatInt(e.ID, 10)
	}
	return "t" + strconv.FormatInt(e.CreatedAt.UnixMilli(), 10)
}

// Extension derives a file extension from a MIME type such as
// "audio/ogg; codecs=opus". Unknown or empty types map to webm.
func Extension(mimeType string) string {
	if mimeType == "" {
		mimeType = models.DefaultAudioMIMEType
	}
	_, subtype, ok := strings.Cut(mimeType, "/")
	if !ok {
		return "webm"
	}
	subtype, _, _ = strings.Cut(subtype, ";")
	subtype = strings.TrimSpace(subtype)
	if subtype == "" {
		return "webm"
	}
	return subtype
}

func writeFile(zw *zip.Writer, name string, modified time.Time, data []byte) error {
	f, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
