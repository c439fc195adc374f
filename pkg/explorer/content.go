package explorer

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/marmos91/dittoexplorer/pkg/media"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

// Entity returns one entity by id.
func (s *Session) Entity(id string) (vfs.Entity, error) {
	e, ok := s.model.Lookup(id)
	if !ok {
		return vfs.Entity{}, &vfs.ModelError{Code: vfs.ErrNotFound, Message: "entity not found", ID: id}
	}
	return e, nil
}

// Breadcrumbs returns the path from the root to id.
func (s *Session) Breadcrumbs(id string) []Crumb {
	return crumbs(s.model.ResolveBreadcrumbs(id))
}

// DriveUsage reports used bytes and capacity of a drive.
func (s *Session) DriveUsage(driveID string) (used, capacity int64, err error) {
	return s.model.DriveUsage(driveID)
}

// Content is a downloadable payload.
type Content struct {
	Name        string
	ContentType string
	Data        []byte
}

// Content returns the payload of a leaf for download. Entities without a
// payload download as empty files.
func (s *Session) Content(id string) (Content, error) {
	e, err := s.Entity(id)
	if err != nil {
		return Content{}, err
	}
	if e.IsContainer() {
		return Content{}, &vfs.ModelError{Code: vfs.ErrInvalidArgument, Message: "containers have no content", ID: id}
	}

	ct := ""
	if e.MediaRef != "" {
		_, ct, _ = s.model.Media().Resolve(e.MediaRef)
	}
	if ct == "" {
		ct = mimetype.Detect(e.Payload).String()
	}
	return Content{Name: e.Name, ContentType: ct, Data: e.Payload}, nil
}

// Media resolves a session media handle.
func (s *Session) Media(h media.Handle) ([]byte, string, bool) {
	reg := s.model.Media()
	if reg == nil {
		return nil, "", false
	}
	return reg.Resolve(h)
}
