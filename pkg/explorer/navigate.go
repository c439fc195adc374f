package explorer

import (
	"github.com/marmos91/dittoexplorer/pkg/navigation"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

// Navigate opens folderID in the active tab.
func (s *Session) Navigate(folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.nav.Navigate(folderID, false); err != nil {
		return err
	}
	s.resetView()
	return nil
}

// Back moves the active tab one step back in its history.
func (s *Session) Back() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moved(s.nav.Back())
}

// Forward moves the active tab one step forward in its history.
func (s *Session) Forward() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moved(s.nav.Forward())
}

// Up opens the parent of the current folder.
func (s *Session) Up() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moved(s.nav.GoUp())
}

func (s *Session) moved(ok bool) bool {
	if ok {
		s.resetView()
	}
	return ok
}

// NewTab opens a tab at the root and activates it.
func (s *Session) NewTab() navigation.Tab {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.nav.NewTab()
	s.resetView()
	return t
}

// CloseTab closes a tab. The last tab cannot be closed.
func (s *Session) CloseTab(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasActive := s.nav.Active().ID == id
	if err := s.nav.CloseTab(id); err != nil {
		return err
	}
	if wasActive {
		s.resetView()
	}
	return nil
}

// ActivateTab switches to another tab.
func (s *Session) ActivateTab(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nav.Active().ID == id {
		return nil
	}
	if err := s.nav.Activate(id); err != nil {
		return err
	}
	s.resetView()
	return nil
}

// OpenResult tells the view what opening an item did.
type OpenResult struct {
	// Navigated is set when a container was opened
	Navigated bool `json:"navigated"`

	// Preview is set when a media leaf should be shown in the preview pane
	Preview *vfs.Entity `json:"-"`
}

// OpenItem opens id: containers are navigated into, media leaves are
// returned for preview, anything else does nothing. Items in the recycle
// bin cannot be opened.
func (s *Session) OpenItem(id string) (OpenResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inTrash() {
		return OpenResult{}, nil
	}

	e, ok := s.model.Lookup(id)
	if !ok {
		return OpenResult{}, &vfs.ModelError{Code: vfs.ErrNotFound, Message: "entity not found", ID: id}
	}

	switch {
	case e.IsContainer():
		if err := s.nav.Navigate(id, false); err != nil {
			return OpenResult{}, err
		}
		s.resetView()
		return OpenResult{Navigated: true}, nil
	case e.Kind.IsMedia():
		return OpenResult{Preview: &e}, nil
	default:
		return OpenResult{}, nil
	}
}

// SetSearch filters the current listing by name.
func (s *Session) SetSearch(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = query
}

// SetSort replaces the listing order.
func (s *Session) SetSort(cfg vfs.SortConfig) error {
	if _, err := vfs.ParseSortKey(string(cfg.Key)); err != nil {
		return err
	}
	if _, err := vfs.ParseSortDirection(string(cfg.Direction)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = cfg
	return nil
}

// ToggleSortDirection flips the listing direction and returns the new order.
func (s *Session) ToggleSortDirection() vfs.SortConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = s.sort.Toggle()
	return s.sort
}
