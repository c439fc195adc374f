package explorer

import (
	"github.com/marmos91/dittoexplorer/pkg/selection"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

// Click applies a click on an item. toggle is the ctrl/cmd modifier.
func (s *Session) Click(id string, toggle bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Click(id, toggle)
}

// ClearSelection handles a click on empty space.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
}

// Select replaces the selection.
func (s *Session) Select(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Set(ids)
}

// BeginMarquee starts a rectangle selection and clears the selection.
func (s *Session) BeginMarquee(p selection.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marquee.Begin(p)
}

// UpdateMarquee recomputes the selection from the item bounds reported by
// the view.
func (s *Session) UpdateMarquee(p selection.Point, items []selection.ItemBounds) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marquee.Update(p, items)
	return s.selection.IDs()
}

// EndMarquee finishes the rectangle selection.
func (s *Session) EndMarquee() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marquee.End()
}

// NewFolder creates "New Folder" in the current folder, selects it and puts
// it in rename mode.
func (s *Session) NewFolder() (vfs.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inTrash() {
		return vfs.Entity{}, ErrTrashView
	}

	e, err := s.model.Create(s.currentPath(), vfs.KindFolder, NewFolderName)
	if err != nil {
		return vfs.Entity{}, err
	}
	s.selection.Set([]string{e.ID})
	s.renaming = e.ID
	return e, nil
}

// BeginRename puts the single selected item in rename mode.
func (s *Session) BeginRename() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.selection.IDs()
	if len(ids) != 1 {
		return "", ErrEmptySelection
	}
	if _, ok := s.model.Lookup(ids[0]); !ok {
		return "", &vfs.ModelError{Code: vfs.ErrNotFound, Message: "entity not found", ID: ids[0]}
	}
	s.renaming = ids[0]
	return ids[0], nil
}

// Rename renames id and leaves rename mode. An empty name is rejected and
// also leaves rename mode.
func (s *Session) Rename(id, name string) (vfs.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.renaming == id {
		s.renaming = ""
	}
	return s.model.Rename(id, name)
}

// CancelRename leaves rename mode.
func (s *Session) CancelRename() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renaming = ""
}

// Cut captures the selection for a move.
func (s *Session) Cut() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selection.Len() == 0 {
		return ErrEmptySelection
	}
	s.clipboard.Cut(s.selection.IDs())
	return nil
}

// Copy captures the selection for a copy.
func (s *Session) Copy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selection.Len() == 0 {
		return ErrEmptySelection
	}
	s.clipboard.Copy(s.selection.IDs())
	return nil
}

// Paste applies the clipboard to the current folder and returns the moved
// or copied entities.
func (s *Session) Paste() ([]vfs.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inTrash() {
		return nil, ErrTrashView
	}
	return s.clipboard.Paste(s.currentPath(), s.model)
}

// Drop moves dragged items into target and clears the selection.
// Dropping onto the recycle bin trashes the items instead.
func (s *Session) Drop(ids []string, target string) ([]vfs.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer s.selection.Clear()
	if target == vfs.TrashID {
		return s.model.SoftDelete(ids)
	}
	return s.model.Move(ids, target)
}

// Restore takes the selected items out of the recycle bin.
func (s *Session) Restore() ([]vfs.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inTrash() {
		return nil, ErrNotTrashView
	}
	if s.selection.Len() == 0 {
		return nil, ErrEmptySelection
	}

	restored, err := s.model.Restore(s.selection.IDs())
	s.selection.Clear()
	return restored, err
}

// SetCover attaches cover art to an audio item.
func (s *Session) SetCover(id, coverRef string) (vfs.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.SetCover(id, coverRef)
}
