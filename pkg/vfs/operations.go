package vfs

import (
	"errors"
	"regexp"
	"strings"
)

// copySuffix is inserted before the extension of copied entities.
const copySuffix = " - Copy"

var extensionPattern = regexp.MustCompile(`(\.[\w-]+)$`)

// CopyName returns the display name given to a copy of an entity named name.
//
//	report.pdf -> report - Copy.pdf
//	Folder     -> Folder - Copy
//	.env       ->  - Copy.env
//
// A leading dot counts as an extension, so dotfiles get the suffix in front.
func CopyName(name string) string {
	if loc := extensionPattern.FindStringIndex(name); loc != nil {
		return name[:loc[0]] + copySuffix + name[loc[0]:]
	}
	return name + copySuffix
}

// Create adds a new entity under parentID.
//
// The parent must be an existing, non-trashed container. The name is trimmed
// and must not be empty; duplicates among siblings are allowed.
func (m *Model) Create(parentID string, kind Kind, name string) (Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.create(parentID, kind, name)
	m.record("create", err)
	if err != nil {
		return Entity{}, err
	}

	m.persister.SchedulePut(e)
	return e, nil
}

func (m *Model) create(parentID string, kind Kind, name string) (Entity, error) {
	if _, err := ParseKind(string(kind)); err != nil || kind == KindRoot {
		return Entity{}, invalidArgument(string(kind), "kind cannot be created")
	}

	cur := m.Snapshot()
	if _, err := validParent(cur, parentID); err != nil {
		return Entity{}, err
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Entity{}, invalidName(parentID)
	}

	e := Entity{
		ID:          m.newID(kind.idPrefix()),
		ParentID:    parentID,
		Name:        trimmed,
		Kind:        kind,
		CreatedDate: m.today(),
	}

	next := cur.clone()
	next.put(e)
	m.publish(next)
	return e, nil
}

// Rename changes the display name of an entity.
func (m *Model) Rename(id, newName string) (Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.Snapshot()
	e, ok := cur.Get(id)
	if !ok {
		err := notFound(id)
		m.record("rename", err)
		return Entity{}, err
	}

	trimmed := strings.TrimSpace(newName)
	if trimmed == "" {
		err := invalidName(id)
		m.record("rename", err)
		return Entity{}, err
	}

	e.Name = trimmed
	next := cur.clone()
	next.put(e)
	m.publish(next)
	m.record("rename", nil)

	m.persister.SchedulePut(e)
	return e, nil
}

// Move reparents each id under targetID.
//
// Items are validated and applied independently: the returned slice holds
// the entities that moved, and the error joins one *ModelError per rejected
// item. A rejected item is left untouched. Items already under targetID are
// neither rewritten nor reported as failures.
func (m *Model) Move(ids []string, targetID string) ([]Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.Snapshot()
	if _, err := validParent(cur, targetID); err != nil {
		m.record("move", err)
		return nil, err
	}

	next := cur.clone()
	var moved []Entity
	var errs []error
	for _, id := range ids {
		e, ok := next.Get(id)
		switch {
		case !ok:
			errs = append(errs, notFound(id))
			continue
		case e.IsRoot():
			errs = append(errs, invalidArgument(id, "the root cannot be moved"))
			continue
		case next.IsSelfOrDescendant(targetID, id):
			errs = append(errs, cycleDetected(id))
			continue
		case e.ParentID == targetID:
			continue
		}

		e.ParentID = targetID
		next.put(e)
		moved = append(moved, e)
	}

	if len(moved) > 0 {
		m.publish(next)
		m.persister.SchedulePut(moved...)
	}

	err := errors.Join(errs...)
	m.record("move", err)
	return moved, err
}

// Copy duplicates each id under targetID.
//
// Copies get a fresh id, a " - Copy" name and are never trashed. Containers
// are copied shallow: their children are not duplicated. Media copies are
// bound to a new handle so revoking one does not affect the other.
func (m *Model) Copy(ids []string, targetID string) ([]Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.Snapshot()
	if _, err := validParent(cur, targetID); err != nil {
		m.record("copy", err)
		return nil, err
	}

	next := cur.clone()
	var copies []Entity
	var errs []error
	for _, id := range ids {
		src, ok := cur.Get(id)
		if !ok {
			errs = append(errs, notFound(id))
			continue
		}
		if src.IsRoot() {
			errs = append(errs, invalidArgument(id, "the root cannot be copied"))
			continue
		}

		dup := src
		dup.ID = m.newID(src.Kind.idPrefix())
		dup.ParentID = targetID
		dup.Name = CopyName(src.Name)
		dup.IsTrashed = false
		dup.MediaRef = m.bindMedia(src.Kind, src.Payload)

		next.put(dup)
		copies = append(copies, dup)
	}

	if len(copies) > 0 {
		m.publish(next)
		m.persister.SchedulePut(copies...)
	}

	err := errors.Join(errs...)
	m.record("copy", err)
	return copies, err
}

// SoftDelete flags each id as trashed. Children are not flagged.
func (m *Model) SoftDelete(ids []string) ([]Entity, error) {
	return m.setTrashed("soft_delete", ids, true)
}

// Restore clears the trashed flag on each id currently in the recycle bin.
// Ids that are not trashed are ignored.
func (m *Model) Restore(ids []string) ([]Entity, error) {
	return m.setTrashed("restore", ids, false)
}

func (m *Model) setTrashed(op string, ids []string, trashed bool) ([]Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.Snapshot()
	next := cur.clone()
	var changed []Entity
	var errs []error
	for _, id := range ids {
		e, ok := next.Get(id)
		if !ok {
			errs = append(errs, notFound(id))
			continue
		}
		if e.IsRoot() {
			errs = append(errs, invalidArgument(id, "the root cannot be trashed"))
			continue
		}
		if e.IsTrashed == trashed {
			continue
		}

		e.IsTrashed = trashed
		next.put(e)
		changed = append(changed, e)
	}

	if len(changed) > 0 {
		m.publish(next)
		m.persister.SchedulePut(changed...)
	}

	err := errors.Join(errs...)
	m.record(op, err)
	return changed, err
}

// Purge permanently removes each id and everything below it.
//
// Returns the ids removed from memory; the same ids are scheduled for
// deletion from the store and their media handles are revoked.
func (m *Model) Purge(ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed, errs := m.purge(ids)
	err := errors.Join(errs...)
	m.record("purge", err)
	return removed, err
}

// EmptyTrash purges every trashed entity and returns the removed ids.
func (m *Model) EmptyTrash() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var trashed []string
	for _, e := range m.Snapshot().All() {
		if e.IsTrashed {
			trashed = append(trashed, e.ID)
		}
	}

	removed, _ := m.purge(trashed)
	m.record("empty_trash", nil)
	return removed
}

// purge removes ids and their descendants. Caller holds m.mu.
func (m *Model) purge(ids []string) ([]string, []error) {
	cur := m.Snapshot()
	seen := make(map[string]bool)
	var removed []string
	var errs []error

	for _, id := range ids {
		e, ok := cur.Get(id)
		if !ok {
			if !seen[id] {
				errs = append(errs, notFound(id))
			}
			continue
		}
		if e.IsRoot() {
			errs = append(errs, invalidArgument(id, "the root cannot be purged"))
			continue
		}
		for _, rid := range append([]string{id}, cur.Descendants(id)...) {
			if seen[rid] {
				continue
			}
			seen[rid] = true
			removed = append(removed, rid)
		}
	}

	if len(removed) == 0 {
		return nil, errs
	}

	for _, id := range removed {
		e, _ := cur.Get(id)
		m.revokeMedia(e)
	}

	next := cur.clone()
	next.remove(removed)
	m.publish(next)
	m.persister.ScheduleDelete(removed...)
	return removed, errs
}

// SetCover attaches cover art to an audio entity.
func (m *Model) SetCover(id, coverRef string) (Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.Snapshot()
	e, ok := cur.Get(id)
	if !ok {
		err := notFound(id)
		m.record("set_cover", err)
		return Entity{}, err
	}
	if e.Kind != KindAudio {
		err := invalidArgument(id, "cover art applies to audio only")
		m.record("set_cover", err)
		return Entity{}, err
	}

	e.CoverRef = coverRef
	next := cur.clone()
	next.put(e)
	m.publish(next)
	m.record("set_cover", nil)

	m.persister.SchedulePut(e)
	return e, nil
}

// DriveUsage reports the bytes held by non-trashed leaves below a drive and
// the drive's nominal capacity.
func (m *Model) DriveUsage(driveID string) (used, capacity int64, err error) {
	s := m.Snapshot()
	d, ok := s.Get(driveID)
	if !ok {
		return 0, 0, notFound(driveID)
	}
	if d.Kind != KindDrive {
		return 0, 0, invalidArgument(driveID, "not a drive")
	}

	for _, id := range s.Descendants(driveID) {
		e, _ := s.Get(id)
		if !e.IsContainer() && !e.IsTrashed {
			used += e.Size()
		}
	}
	return used, d.Size(), nil
}
