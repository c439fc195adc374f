package explorer

import (
	"slices"

	"github.com/marmos91/dittoexplorer/internal/logger"
)

// PendingKind is a destructive action awaiting confirmation.
type PendingKind string

const (
	// PendingDelete moves the items to the recycle bin.
	PendingDelete PendingKind = "delete"

	// PendingPurge removes trashed items permanently.
	PendingPurge PendingKind = "purge"

	// PendingEmptyTrash removes everything in the recycle bin.
	PendingEmptyTrash PendingKind = "empty_trash"
)

// Pending is the action shown in the confirmation dialog.
type Pending struct {
	Kind PendingKind `json:"kind"`
	IDs  []string    `json:"ids,omitempty"`
}

func (p Pending) clone() Pending {
	p.IDs = slices.Clone(p.IDs)
	return p
}

// RequestDelete asks for confirmation to delete the selection: a soft
// delete outside the recycle bin, a purge inside it.
func (s *Session) RequestDelete() (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selection.Len() == 0 {
		return Pending{}, ErrEmptySelection
	}

	kind := PendingDelete
	if s.inTrash() {
		kind = PendingPurge
	}
	s.pending = &Pending{Kind: kind, IDs: s.selection.IDs()}
	return s.pending.clone(), nil
}

// RequestEmptyTrash asks for confirmation to empty the recycle bin.
func (s *Session) RequestEmptyTrash() Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = &Pending{Kind: PendingEmptyTrash}
	return s.pending.clone()
}

// CancelPending dismisses the confirmation.
func (s *Session) CancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// ConfirmPending runs the pending action and clears the selection. It
// returns the ids that were trashed or removed.
func (s *Session) ConfirmPending() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return nil, ErrNoPending
	}
	p := *s.pending
	s.pending = nil
	s.selection.Clear()

	switch p.Kind {
	case PendingDelete:
		trashed, err := s.model.SoftDelete(p.IDs)
		ids := make([]string, len(trashed))
		for i, e := range trashed {
			ids[i] = e.ID
		}
		return ids, err
	case PendingPurge:
		return s.model.Purge(p.IDs)
	case PendingEmptyTrash:
		removed := s.model.EmptyTrash()
		logger.Info("Emptied recycle bin: %d entities removed", len(removed))
		return removed, nil
	default:
		return nil, ErrNoPending
	}
}
