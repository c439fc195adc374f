// Package navigation keeps per-tab folder history.
//
// Each tab is a small state machine over folder ids (plus the trash
// sentinel) with browser-style history: navigating truncates forward
// history, back and forward move a cursor. Folder existence and titles come
// from a Resolver, normally the vfs.Model, so history survives model edits and
// stale entries are skipped at the moment they are revisited.
package navigation

import (
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

var (
	// ErrLastTab is returned when closing the only remaining tab.
	ErrLastTab = errors.New("cannot close the last tab")

	// ErrTabNotFound is returned for an unknown tab id.
	ErrTabNotFound = errors.New("tab not found")
)

// Resolver answers folder lookups for the manager.
type Resolver interface {
	Lookup(id string) (vfs.Entity, bool)
	Title(folderID string) string
}

// Tab is one navigation context.
type Tab struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Title string `json:"title"`

	// History holds visited folder ids; Index points at the current one.
	History []string `json:"history"`
	Index   int      `json:"currentIndex"`
}

// CanGoBack reports whether there is history before the cursor.
func (t Tab) CanGoBack() bool { return t.Index > 0 }

// CanGoForward reports whether there is history after the cursor.
func (t Tab) CanGoForward() bool { return t.Index < len(t.History)-1 }

func (t Tab) clone() Tab {
	t.History = slices.Clone(t.History)
	return t
}

// Manager owns the open tabs and the active one.
//
// Not safe for concurrent use; explorer.Session serialises access.
type Manager struct {
	resolver Resolver
	tabs     []*Tab
	active   string
	newID    func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithTabIDs overrides tab id generation.
func WithTabIDs(gen func() string) Option {
	return func(m *Manager) { m.newID = gen }
}

// NewManager creates a manager with a single tab at the root.
func NewManager(resolver Resolver, opts ...Option) *Manager {
	m := &Manager{resolver: resolver, newID: uuid.NewString}
	for _, opt := range opts {
		opt(m)
	}
	m.NewTab()
	return m
}

// Active returns a copy of the active tab.
func (m *Manager) Active() Tab {
	return m.activeTab().clone()
}

// Tabs returns copies of every open tab in display order.
func (m *Manager) Tabs() []Tab {
	out := make([]Tab, len(m.tabs))
	for i, t := range m.tabs {
		out[i] = t.clone()
	}
	return out
}

// NewTab opens a tab at the root and activates it.
func (m *Manager) NewTab() Tab {
	t := &Tab{
		ID:      m.newID(),
		Path:    vfs.RootID,
		Title:   m.resolver.Title(vfs.RootID),
		History: []string{vfs.RootID},
	}
	m.tabs = append(m.tabs, t)
	m.active = t.ID
	return t.clone()
}

// CloseTab closes a tab. Closing the active tab activates the first
// remaining one.
func (m *Manager) CloseTab(id string) error {
	if len(m.tabs) <= 1 {
		return ErrLastTab
	}
	idx := m.indexOf(id)
	if idx < 0 {
		return ErrTabNotFound
	}

	m.tabs = slices.Delete(m.tabs, idx, idx+1)
	if m.active == id {
		m.active = m.tabs[0].ID
	}
	return nil
}

// Activate makes id the active tab.
func (m *Manager) Activate(id string) error {
	if m.indexOf(id) < 0 {
		return ErrTabNotFound
	}
	m.active = id
	return nil
}

// Navigate moves the active tab to folderID.
//
// Without replace, forward history is truncated and folderID appended.
// With replace, only the path and title change; history is left as is
// (used for programmatic redirects).
func (m *Manager) Navigate(folderID string, replace bool) error {
	if err := m.checkFolder(folderID); err != nil {
		return err
	}

	t := m.activeTab()
	t.Path = folderID
	t.Title = m.resolver.Title(folderID)
	if replace {
		return nil
	}

	t.History = append(t.History[:t.Index+1:t.Index+1], folderID)
	t.Index = len(t.History) - 1
	return nil
}

// Back moves the cursor one step back. Returns false at the start of the
// history or when the previous folder no longer exists.
func (m *Manager) Back() bool {
	return m.step(-1)
}

// Forward moves the cursor one step forward. Returns false at the end of the
// history or when the next folder no longer exists.
func (m *Manager) Forward() bool {
	return m.step(1)
}

func (m *Manager) step(delta int) bool {
	t := m.activeTab()
	target := t.Index + delta
	if target < 0 || target >= len(t.History) {
		return false
	}

	folderID := t.History[target]
	if m.checkFolder(folderID) != nil {
		return false
	}

	t.Index = target
	t.Path = folderID
	t.Title = m.resolver.Title(folderID)
	return true
}

// GoUp navigates to the parent of the current folder, or to the root from
// the trash view. Returns false at the root.
func (m *Manager) GoUp() bool {
	t := m.activeTab()
	if t.Path == vfs.TrashID {
		return m.Navigate(vfs.RootID, false) == nil
	}

	cur, ok := m.resolver.Lookup(t.Path)
	if !ok {
		return m.Navigate(vfs.RootID, false) == nil
	}
	if cur.IsRoot() {
		return false
	}
	return m.Navigate(cur.ParentID, false) == nil
}

// checkFolder verifies folderID can be displayed.
func (m *Manager) checkFolder(folderID string) error {
	if folderID == vfs.TrashID {
		return nil
	}
	e, ok := m.resolver.Lookup(folderID)
	if !ok {
		return &vfs.ModelError{Code: vfs.ErrNotFound, Message: "folder not found", ID: folderID}
	}
	if !e.IsContainer() {
		return &vfs.ModelError{Code: vfs.ErrInvalidParent, Message: "not a folder", ID: folderID}
	}
	return nil
}

func (m *Manager) activeTab() *Tab {
	if idx := m.indexOf(m.active); idx >= 0 {
		return m.tabs[idx]
	}
	return m.tabs[0]
}

func (m *Manager) indexOf(id string) int {
	return slices.IndexFunc(m.tabs, func(t *Tab) bool { return t.ID == id })
}
