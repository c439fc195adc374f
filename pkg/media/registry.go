// Package media keeps session-local handles to binary content.
//
// A handle is the Go counterpart of a browser object URL: it is valid only for
// the lifetime of the Registry that issued it and must never be persisted.
// Entities regenerate their handles from the durable payload on every load.
package media

import (
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// HandleScheme prefixes every handle issued by a Registry.
const HandleScheme = "blob:"

// Handle identifies a blob bound in a Registry.
type Handle string

// String returns the handle as a string.
func (h Handle) String() string { return string(h) }

type blob struct {
	data        []byte
	contentType string
}

// Registry maps handles to payloads for one session.
//
// Thread Safety:
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	session string
	blobs   map[Handle]blob
}

// NewRegistry creates an empty registry with a fresh session identifier.
func NewRegistry() *Registry {
	return &Registry{
		session: uuid.NewString(),
		blobs:   make(map[Handle]blob),
	}
}

// Session returns the session identifier embedded in every handle.
func (r *Registry) Session() string {
	return r.session
}

// Bind registers a payload and returns a fresh handle for it.
// The content type is sniffed from the payload bytes.
func (r *Registry) Bind(data []byte) Handle {
	h := Handle(HandleScheme + r.session + "/" + uuid.NewString())
	ct := mimetype.Detect(data).String()

	r.mu.Lock()
	r.blobs[h] = blob{data: data, contentType: ct}
	r.mu.Unlock()

	return h
}

// Resolve returns the payload and content type bound to h.
func (r *Registry) Resolve(h Handle) ([]byte, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.blobs[h]
	if !ok {
		return nil, "", false
	}
	return b.data, b.contentType, true
}

// Revoke releases a handle. Unknown handles are ignored.
func (r *Registry) Revoke(h Handle) {
	if h == "" {
		return
	}
	r.mu.Lock()
	delete(r.blobs, h)
	r.mu.Unlock()
}

// Owns reports whether h was issued by this registry's session.
func (r *Registry) Owns(h Handle) bool {
	return strings.HasPrefix(string(h), HandleScheme+r.session+"/")
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}
