// Package explorer wires the file-system model, tab navigation, selection
// and clipboard into one explorer session driven by view-layer intents.
//
// A Session is what the view talks to: every intent (click, open, paste,
// delete, upload...) is a method, and State plus Listing describe what the
// view should render afterwards.
//
// Thread Safety:
// All Session methods are safe for concurrent use. Calls are serialised by
// a mutex so intents apply one at a time, in arrival order.
package explorer

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/marmos91/dittoexplorer/pkg/navigation"
	"github.com/marmos91/dittoexplorer/pkg/selection"
	"github.com/marmos91/dittoexplorer/pkg/settings"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

var (
	// ErrTrashView is returned for operations that make no sense in the
	// recycle bin (creating, pasting, uploading).
	ErrTrashView = errors.New("not available in the recycle bin")

	// ErrNotTrashView is returned by Restore outside the recycle bin.
	ErrNotTrashView = errors.New("only available in the recycle bin")

	// ErrEmptySelection is returned when an intent needs selected items.
	ErrEmptySelection = errors.New("nothing selected")

	// ErrNoPending is returned by ConfirmPending without a pending action.
	ErrNoPending = errors.New("no pending action")
)

// NewFolderName is the name given to folders created by NewFolder.
const NewFolderName = "New Folder"

// Session is one explorer window: a model plus the per-window view state.
type Session struct {
	mu sync.Mutex

	id        string
	model     *vfs.Model
	nav       *navigation.Manager
	selection *selection.Selection
	marquee   *selection.Marquee
	clipboard *selection.Clipboard

	search   string
	sort     vfs.SortConfig
	renaming string
	pending  *Pending

	settings      *settings.AppConfig
	settingsStore settings.Store

	navOpts []navigation.Option
}

// Option configures a Session.
type Option func(*Session)

// WithSettings attaches the application settings and the store they are
// saved to. Without it the session uses in-memory defaults.
func WithSettings(cfg *settings.AppConfig, store settings.Store) Option {
	return func(s *Session) {
		if cfg != nil {
			s.settings = cfg
		}
		if store != nil {
			s.settingsStore = store
		}
	}
}

// WithNavigationOptions forwards options to the navigation manager.
func WithNavigationOptions(opts ...navigation.Option) Option {
	return func(s *Session) { s.navOpts = append(s.navOpts, opts...) }
}

// WithSort sets the initial listing order.
func WithSort(cfg vfs.SortConfig) Option {
	return func(s *Session) { s.sort = cfg }
}

// New creates a session over model with one tab at the root.
func New(model *vfs.Model, opts ...Option) *Session {
	sel := selection.New()
	s := &Session{
		id:            uuid.NewString(),
		model:         model,
		selection:     sel,
		marquee:       selection.NewMarquee(sel),
		clipboard:     selection.NewClipboard(),
		sort:          vfs.DefaultSort,
		settings:      settings.Default(),
		settingsStore: settings.NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.nav = navigation.NewManager(model, s.navOpts...)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Model returns the underlying file-system model.
func (s *Session) Model() *vfs.Model {
	return s.model
}

// State is what the view renders besides the listing.
type State struct {
	SessionID    string           `json:"sessionId"`
	Tabs         []navigation.Tab `json:"tabs"`
	ActiveTab    string           `json:"activeTabId"`
	Path         string           `json:"path"`
	Title        string           `json:"title"`
	InTrash      bool             `json:"inTrash"`
	Breadcrumbs  []Crumb          `json:"breadcrumbs"`
	CanGoBack    bool             `json:"canGoBack"`
	CanGoForward bool             `json:"canGoForward"`
	Selection    []string         `json:"selection"`
	Marquee      *selection.Rect  `json:"marquee,omitempty"`
	Clipboard    selection.Buffer `json:"clipboard"`
	Search       string           `json:"search"`
	Sort         vfs.SortConfig   `json:"sort"`
	Renaming     string           `json:"renaming,omitempty"`
	Pending      *Pending         `json:"pending,omitempty"`
}

// Crumb is one segment of the address bar.
type Crumb struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Kind vfs.Kind `json:"kind"`
}

func crumbs(path []vfs.Entity) []Crumb {
	out := make([]Crumb, len(path))
	for i, e := range path {
		out[i] = Crumb{ID: e.ID, Name: e.Name, Kind: e.Kind}
	}
	return out
}

// State returns the current view state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Session) state() State {
	tab := s.nav.Active()
	st := State{
		SessionID:    s.id,
		Tabs:         s.nav.Tabs(),
		ActiveTab:    tab.ID,
		Path:         tab.Path,
		Title:        tab.Title,
		InTrash:      tab.Path == vfs.TrashID,
		Breadcrumbs:  crumbs(s.model.ResolveBreadcrumbs(tab.Path)),
		CanGoBack:    tab.CanGoBack(),
		CanGoForward: tab.CanGoForward(),
		Selection:    s.selection.IDs(),
		Clipboard:    s.clipboard.Buffer(),
		Search:       s.search,
		Sort:         s.sort,
		Renaming:     s.renaming,
	}
	if r, ok := s.marquee.Rect(); ok {
		st.Marquee = &r
	}
	if s.pending != nil {
		p := s.pending.clone()
		st.Pending = &p
	}
	return st
}

// Listing returns the entities of the current folder view, filtered by the
// search query and ordered by the sort config.
func (s *Session) Listing() []vfs.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.List(s.nav.Active().Path, s.search, s.sort)
}

// currentPath is the active tab's folder id. Caller holds s.mu.
func (s *Session) currentPath() string {
	return s.nav.Active().Path
}

func (s *Session) inTrash() bool {
	return s.currentPath() == vfs.TrashID
}

// resetView clears the per-folder view state after the folder changed.
func (s *Session) resetView() {
	s.selection.Clear()
	s.marquee.End()
	s.search = ""
	s.renaming = ""
}
