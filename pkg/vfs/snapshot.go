package vfs

// Snapshot is an immutable view of the whole entity collection.
//
// Every model mutation builds a new Snapshot from the previous one and
// publishes it atomically, so a reader holding a Snapshot never observes a
// half-applied operation.
//
// Thread Safety:
// A published Snapshot is read-only and safe for concurrent use.
type Snapshot struct {
	entities map[string]Entity
	order    []string
}

// NewSnapshot builds a snapshot from entities, keeping their order.
// Later duplicates of an id replace earlier ones in place.
func NewSnapshot(entities []Entity) *Snapshot {
	s := &Snapshot{
		entities: make(map[string]Entity, len(entities)),
		order:    make([]string, 0, len(entities)),
	}
	for _, e := range entities {
		s.put(e)
	}
	return s
}

// Get returns the entity with the given id.
func (s *Snapshot) Get(id string) (Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Len returns the number of entities.
func (s *Snapshot) Len() int {
	return len(s.entities)
}

// All returns every entity in insertion order.
func (s *Snapshot) All() []Entity {
	out := make([]Entity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entities[id])
	}
	return out
}

// Root returns the entity without a parent.
func (s *Snapshot) Root() (Entity, bool) {
	for _, id := range s.order {
		if e := s.entities[id]; e.IsRoot() {
			return e, true
		}
	}
	return Entity{}, false
}

// Children returns the direct children of parentID in insertion order,
// trashed or not.
func (s *Snapshot) Children(parentID string) []Entity {
	var out []Entity
	for _, id := range s.order {
		if e := s.entities[id]; e.ParentID == parentID && !e.IsRoot() {
			out = append(out, e)
		}
	}
	return out
}

// IsSelfOrDescendant reports whether id equals ancestorID or lies below it.
//
// The walk is bounded by the collection size, so a corrupted parent chain
// cannot loop forever.
func (s *Snapshot) IsSelfOrDescendant(id, ancestorID string) bool {
	cur := id
	for steps := 0; steps <= len(s.entities); steps++ {
		if cur == ancestorID {
			return true
		}
		e, ok := s.entities[cur]
		if !ok || e.IsRoot() {
			return false
		}
		cur = e.ParentID
	}
	return false
}

// Descendants returns the ids of every entity below id, breadth first.
func (s *Snapshot) Descendants(id string) []string {
	byParent := make(map[string][]string, len(s.entities))
	for _, cid := range s.order {
		e := s.entities[cid]
		if !e.IsRoot() {
			byParent[e.ParentID] = append(byParent[e.ParentID], cid)
		}
	}

	var out []string
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, cid := range byParent[cur] {
			if seen[cid] {
				continue
			}
			seen[cid] = true
			out = append(out, cid)
			queue = append(queue, cid)
		}
	}
	return out
}

// ============================================================================
// Copy-on-write helpers (only used on unpublished snapshots)
// ============================================================================

func (s *Snapshot) clone() *Snapshot {
	c := &Snapshot{
		entities: make(map[string]Entity, len(s.entities)+1),
		order:    make([]string, len(s.order), len(s.order)+1),
	}
	for k, v := range s.entities {
		c.entities[k] = v
	}
	copy(c.order, s.order)
	return c
}

func (s *Snapshot) put(e Entity) {
	if _, exists := s.entities[e.ID]; !exists {
		s.order = append(s.order, e.ID)
	}
	s.entities[e.ID] = e
}

func (s *Snapshot) prepend(entities []Entity) {
	ids := make([]string, 0, len(entities)+len(s.order))
	for _, e := range entities {
		if _, exists := s.entities[e.ID]; exists {
			continue
		}
		s.entities[e.ID] = e
		ids = append(ids, e.ID)
	}
	s.order = append(ids, s.order...)
}

func (s *Snapshot) remove(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.entities[id]; ok {
			drop[id] = true
			delete(s.entities, id)
		}
	}
	if len(drop) == 0 {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	s.order = kept
}
