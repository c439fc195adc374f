package vfs

import (
	"github.com/marmos91/dittoexplorer/pkg/media"
)

// TrashID is the navigation sentinel for the recycle bin view.
// It never names a stored entity.
const TrashID = "trash"

// TrashTitle is the display name of the recycle bin view.
const TrashTitle = "Recycle Bin"

// RootID is the identifier of the seeded root entity.
const RootID = "root"

// Entity is a node in the virtual file tree.
//
// Entities are values: the model never hands out pointers into its
// collection, and every mutation produces a new Entity in a new Snapshot.
// Payload bytes are shared between copies and must be treated as read-only.
type Entity struct {
	// ID is opaque, unique and stable for the entity's lifetime
	ID string

	// ParentID is the containing container; empty only for the root
	ParentID string

	// Name is the display name
	Name string

	// Kind is the entity variant
	Kind Kind

	// SizeBytes is the content size (leaves) or nominal capacity (drives)
	SizeBytes *int64

	// CreatedDate is a display date (YYYY-MM-DD) set at creation
	CreatedDate string

	// IconHint tags well-known shortcuts (desktop, downloads, drive, ...)
	IconHint string

	// MediaRef is a session-local handle to Payload. Never persisted.
	MediaRef media.Handle

	// CoverRef references cover art for audio leaves
	CoverRef string

	// Payload is the binary content owned by the entity
	Payload []byte

	// IsTrashed marks the entity as soft-deleted
	IsTrashed bool
}

// IsRoot reports whether the entity is the tree root.
func (e Entity) IsRoot() bool {
	return e.ParentID == ""
}

// IsContainer reports whether the entity may hold children.
func (e Entity) IsContainer() bool {
	return e.Kind.IsContainer()
}

// Size returns SizeBytes or 0 when unset.
func (e Entity) Size() int64 {
	if e.SizeBytes == nil {
		return 0
	}
	return *e.SizeBytes
}

// Int64 returns a pointer to v, for SizeBytes literals.
func Int64(v int64) *int64 {
	return &v
}

// trashCrumb is the synthetic entity shown for the recycle bin view.
func trashCrumb() Entity {
	return Entity{ID: TrashID, Name: TrashTitle, Kind: KindFolder}
}
