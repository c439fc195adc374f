package explorer

import (
	"context"

	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

// Upload imports files into the current folder. The new top-level items
// become the selection.
//
// The session lock is released while the import awaits its durable writes,
// so other intents are served in the meantime.
func (s *Session) Upload(ctx context.Context, entries []vfs.ImportEntry) (vfs.ImportResult, error) {
	s.mu.Lock()
	if s.inTrash() {
		s.mu.Unlock()
		return vfs.ImportResult{}, ErrTrashView
	}
	target := s.currentPath()
	s.mu.Unlock()

	return s.importInto(ctx, target, entries)
}

// DropFiles imports files dropped onto target. When target is not the
// current folder the active tab is first redirected there without a new
// history entry.
func (s *Session) DropFiles(ctx context.Context, target string, entries []vfs.ImportEntry) (vfs.ImportResult, error) {
	s.mu.Lock()
	if target == vfs.TrashID {
		s.mu.Unlock()
		return vfs.ImportResult{}, ErrTrashView
	}
	if target != s.currentPath() {
		if err := s.nav.Navigate(target, true); err != nil {
			s.mu.Unlock()
			return vfs.ImportResult{}, err
		}
		s.resetView()
	}
	s.mu.Unlock()

	return s.importInto(ctx, target, entries)
}

func (s *Session) importInto(ctx context.Context, target string, entries []vfs.ImportEntry) (vfs.ImportResult, error) {
	res, err := s.model.Import(ctx, target, entries)

	if len(res.TopLevel) > 0 {
		ids := make([]string, len(res.TopLevel))
		for i, e := range res.TopLevel {
			ids[i] = e.ID
		}

		s.mu.Lock()
		if s.currentPath() == target {
			s.selection.Set(ids)
		}
		s.mu.Unlock()
	}
	return res, err
}
