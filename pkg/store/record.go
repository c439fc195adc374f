package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

// Record is the persisted shape of an entity.
//
// The JSON form is the wire format shared by every backend:
//
//	{ id, parentId, name, kind, sizeBytes?, createdDate?, iconHint?,
//	  coverRef?, binaryPayload?, isTrashed? }
//
// Media handles are session-local and have no field here.
type Record struct {
	ID            string  `json:"id"`
	ParentID      *string `json:"parentId"`
	Name          string  `json:"name"`
	Kind          string  `json:"kind"`
	SizeBytes     *int64  `json:"sizeBytes,omitempty"`
	CreatedDate   string  `json:"createdDate,omitempty"`
	IconHint      string  `json:"iconHint,omitempty"`
	CoverRef      string  `json:"coverRef,omitempty"`
	BinaryPayload []byte  `json:"binaryPayload,omitempty"`
	IsTrashed     bool    `json:"isTrashed,omitempty"`
}

// FromEntity converts an entity to its persisted record. MediaRef is dropped.
func FromEntity(e vfs.Entity) Record {
	r := Record{
		ID:            e.ID,
		Name:          e.Name,
		Kind:          string(e.Kind),
		SizeBytes:     e.SizeBytes,
		CreatedDate:   e.CreatedDate,
		IconHint:      e.IconHint,
		CoverRef:      e.CoverRef,
		BinaryPayload: e.Payload,
		IsTrashed:     e.IsTrashed,
	}
	if e.ParentID != "" {
		parent := e.ParentID
		r.ParentID = &parent
	}
	return r
}

// Entity converts a record back to an entity without a media handle.
func (r Record) Entity() (vfs.Entity, error) {
	kind, err := vfs.ParseKind(r.Kind)
	if err != nil {
		return vfs.Entity{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	if r.ID == "" {
		return vfs.Entity{}, errors.New("record without id")
	}

	e := vfs.Entity{
		ID:          r.ID,
		Name:        r.Name,
		Kind:        kind,
		SizeBytes:   r.SizeBytes,
		CreatedDate: r.CreatedDate,
		IconHint:    r.IconHint,
		CoverRef:    r.CoverRef,
		Payload:     r.BinaryPayload,
		IsTrashed:   r.IsTrashed,
	}
	if r.ParentID != nil {
		e.ParentID = *r.ParentID
	}
	return e, nil
}

// EncodeRecord serialises a record to JSON.
func EncodeRecord(r Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record %s: %w", r.ID, err)
	}
	return data, nil
}

// DecodeRecord parses a JSON record.
func DecodeRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("failed to decode record: %w", err)
	}
	return r, nil
}
