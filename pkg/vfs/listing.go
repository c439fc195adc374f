package vfs

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the listing order.
type SortKey string

const (
	SortByName SortKey = "name"
	SortByDate SortKey = "date"
	SortBySize SortKey = "size"
	SortByType SortKey = "type"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortConfig is the active listing order.
type SortConfig struct {
	Key       SortKey       `json:"key"`
	Direction SortDirection `json:"direction"`
}

// DefaultSort orders by name, ascending.
var DefaultSort = SortConfig{Key: SortByName, Direction: Ascending}

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortByName, SortByDate, SortBySize, SortByType:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// ParseSortDirection validates a sort direction name.
func ParseSortDirection(s string) (SortDirection, error) {
	switch d := SortDirection(s); d {
	case Ascending, Descending:
		return d, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// Toggle returns the config with the opposite direction.
func (c SortConfig) Toggle() SortConfig {
	if c.Direction == Descending {
		c.Direction = Ascending
	} else {
		c.Direction = Descending
	}
	return c
}

// ListChildren returns the direct children of parentID.
//
// Only entities whose trashed flag equals includeTrashed are returned, and
// only those whose name contains nameFilter (case-insensitive).
func (m *Model) ListChildren(parentID string, includeTrashed bool, nameFilter string, sort SortConfig) []Entity {
	s := m.Snapshot()
	var out []Entity
	for _, e := range s.Children(parentID) {
		if e.IsTrashed == includeTrashed && matchesFilter(e, nameFilter) {
			out = append(out, e)
		}
	}
	sortEntities(out, sort, m.locale)
	return out
}

// ListTrash returns every trashed entity regardless of its parent.
func (m *Model) ListTrash(nameFilter string, sort SortConfig) []Entity {
	var out []Entity
	for _, e := range m.Snapshot().All() {
		if e.IsTrashed && matchesFilter(e, nameFilter) {
			out = append(out, e)
		}
	}
	sortEntities(out, sort, m.locale)
	return out
}

// List returns the contents of a folder view. The trash sentinel lists the
// recycle bin; any other id lists its non-trashed children.
func (m *Model) List(folderID, nameFilter string, sort SortConfig) []Entity {
	if folderID == TrashID {
		return m.ListTrash(nameFilter, sort)
	}
	return m.ListChildren(folderID, false, nameFilter, sort)
}

// ResolveBreadcrumbs returns the path from the root down to id.
//
// The trash sentinel resolves to a single synthetic crumb. An unknown id
// yields an empty path.
func (m *Model) ResolveBreadcrumbs(id string) []Entity {
	if id == TrashID {
		return []Entity{trashCrumb()}
	}

	s := m.Snapshot()
	var path []Entity
	cur := id
	for steps := 0; steps <= s.Len(); steps++ {
		e, ok := s.Get(cur)
		if !ok {
			break
		}
		path = append(path, e)
		if e.IsRoot() {
			break
		}
		cur = e.ParentID
	}
	slices.Reverse(path)
	return path
}

// Title returns the display title of a folder view.
func (m *Model) Title(folderID string) string {
	if folderID == TrashID {
		return TrashTitle
	}
	if e, ok := m.Lookup(folderID); ok {
		return e.Name
	}
	return ""
}

func matchesFilter(e Entity, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter))
}

// sortEntities orders entities in place. Ties on date, size and type are
// broken by name so listings are stable across snapshots.
func sortEntities(entities []Entity, cfg SortConfig, locale language.Tag) {
	// Collators keep internal buffers and are not safe for concurrent use.
	col := collate.New(locale)
	byName := func(a, b Entity) int {
		return col.CompareString(a.Name, b.Name)
	}

	var primary func(a, b Entity) int
	switch cfg.Key {
	case SortByDate:
		primary = func(a, b Entity) int { return strings.Compare(a.CreatedDate, b.CreatedDate) }
	case SortBySize:
		primary = func(a, b Entity) int { return compareInt64(a.Size(), b.Size()) }
	case SortByType:
		primary = func(a, b Entity) int { return strings.Compare(string(a.Kind), string(b.Kind)) }
	default:
		primary = byName
	}

	desc := cfg.Direction == Descending
	slices.SortStableFunc(entities, func(a, b Entity) int {
		c := primary(a, b)
		if c == 0 && cfg.Key != SortByName && cfg.Key != "" {
			c = byName(a, b)
		}
		if desc {
			return -c
		}
		return c
	})
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
