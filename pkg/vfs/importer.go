package vfs

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/marmos91/dittoexplorer/internal/logger"
)

// ImportEntry is one file of a bulk upload.
type ImportEntry struct {
	// Path is the slash-separated path relative to the drop target.
	// Leading segments name folders; the last one is the file name.
	Path string

	// ContentType is the MIME type reported by the client, if any
	ContentType string

	// Data is the file content
	Data []byte
}

// ImportResult summarises a bulk upload.
type ImportResult struct {
	// Created holds every new entity (folders and files) in creation order
	Created []Entity

	// TopLevel holds the new entities placed directly in the drop target
	TopLevel []Entity

	// Failed counts entries that were skipped
	Failed int
}

// Import adds a batch of uploaded files under parentID.
//
// Entries are processed one at a time and every durable write is awaited
// before the next entry starts. Folder segments reuse an existing non-trashed
// folder of the same name under the same parent, or create one. An entry that
// cannot be imported is logged and skipped; the returned error joins those
// failures. A store write failure keeps the entity in memory.
func (m *Model) Import(ctx context.Context, parentID string, entries []ImportEntry) (ImportResult, error) {
	var res ImportResult

	if _, err := validParent(m.Snapshot(), parentID); err != nil {
		m.record("import", err)
		return res, err
	}

	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		created, err := m.importEntry(parentID, entry)
		if err != nil {
			logger.Error("Error processing file %s: %v", entry.Path, err)
			errs = append(errs, fmt.Errorf("import %s: %w", entry.Path, err))
			res.Failed++
			continue
		}

		for _, e := range created {
			if err := m.persister.PutNow(ctx, e); err != nil {
				logger.Error("Failed to persist imported entity %s: %v", e.ID, err)
			}
			if e.ParentID == parentID {
				res.TopLevel = append(res.TopLevel, e)
			}
		}
		res.Created = append(res.Created, created...)
	}

	err := errors.Join(errs...)
	m.record("import", err)
	logger.Debug("Imported %d entities into %s (%d failed)", len(res.Created), parentID, res.Failed)
	return res, err
}

// importEntry publishes the folders and file for one entry and returns the
// entities it created.
func (m *Model) importEntry(parentID string, entry ImportEntry) ([]Entity, error) {
	segments := splitPath(entry.Path)
	if len(segments) == 0 {
		return nil, invalidName(entry.Path)
	}
	fileName := segments[len(segments)-1]
	folders := segments[:len(segments)-1]

	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.Snapshot()
	if _, err := validParent(cur, parentID); err != nil {
		return nil, err
	}

	next := cur.clone()
	var created []Entity
	today := m.today()

	parent := parentID
	for _, name := range folders {
		if existing, ok := findFolder(next, parent, name); ok {
			parent = existing.ID
			continue
		}
		f := Entity{
			ID:          m.newID(KindFolder.idPrefix()),
			ParentID:    parent,
			Name:        name,
			Kind:        KindFolder,
			CreatedDate: today,
		}
		next.put(f)
		created = append(created, f)
		parent = f.ID
	}

	kind := DetectKind(fileName, entry.ContentType, entry.Data)
	f := Entity{
		ID:          m.newID(kind.idPrefix()),
		ParentID:    parent,
		Name:        fileName,
		Kind:        kind,
		SizeBytes:   Int64(int64(len(entry.Data))),
		CreatedDate: today,
		Payload:     entry.Data,
		MediaRef:    m.bindMedia(kind, entry.Data),
	}
	next.put(f)
	created = append(created, f)

	m.publish(next)
	return created, nil
}

func findFolder(s *Snapshot, parentID, name string) (Entity, bool) {
	for _, e := range s.Children(parentID) {
		if e.Kind == KindFolder && e.Name == name && !e.IsTrashed {
			return e, true
		}
	}
	return Entity{}, false
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg = strings.TrimSpace(seg); seg != "" && seg != "." && seg != ".." {
			out = append(out, seg)
		}
	}
	return out
}

// DetectKind maps an uploaded file to an entity kind.
//
// The client supplied content type wins; otherwise the payload is sniffed,
// and when sniffing is inconclusive the file extension decides.
func DetectKind(name, contentType string, data []byte) Kind {
	ct := contentType
	if ct == "" && len(data) > 0 {
		ct = mimetype.Detect(data).String()
	}
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") || strings.HasPrefix(ct, "text/plain") {
		if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(name))); byExt != "" {
			ct = byExt
		}
	}
	return KindForMIME(ct)
}

// KindForMIME maps a MIME type to an entity kind.
func KindForMIME(ct string) Kind {
	ct = strings.ToLower(ct)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	case strings.Contains(ct, "pdf"):
		return KindPDF
	case strings.Contains(ct, "excel") || strings.Contains(ct, "sheet"):
		return KindSpreadsheet
	case strings.Contains(ct, "word") || strings.Contains(ct, "document"):
		return KindDocument
	case strings.HasPrefix(ct, "video/"):
		return KindVideo
	case strings.HasPrefix(ct, "audio/"):
		return KindAudio
	default:
		return KindFile
	}
}
