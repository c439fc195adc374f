package selection

import (
	"slices"

	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

// Action is the pending clipboard operation.
type Action string

const (
	ActionNone Action = ""
	ActionCut  Action = "cut"
	ActionCopy Action = "copy"
)

// Paster applies a paste to the model. *vfs.Model implements it.
type Paster interface {
	Move(ids []string, targetID string) ([]vfs.Entity, error)
	Copy(ids []string, targetID string) ([]vfs.Entity, error)
}

// Buffer is a snapshot of the clipboard.
type Buffer struct {
	Action Action   `json:"action,omitempty"`
	Items  []string `json:"items"`
}

// Clipboard holds ids captured by Cut or Copy. Capturing never touches the
// model.
type Clipboard struct {
	buf Buffer
}

// NewClipboard returns an empty clipboard.
func NewClipboard() *Clipboard {
	return &Clipboard{}
}

// Cut captures ids for a move. An empty id list leaves the clipboard unchanged.
func (c *Clipboard) Cut(ids []string) {
	c.capture(ActionCut, ids)
}

// Copy captures ids for a copy. An empty id list leaves the clipboard unchanged.
func (c *Clipboard) Copy(ids []string) {
	c.capture(ActionCopy, ids)
}

func (c *Clipboard) capture(action Action, ids []string) {
	if len(ids) == 0 {
		return
	}
	c.buf = Buffer{Action: action, Items: slices.Clone(ids)}
}

// Paste applies the buffer to targetID.
//
// A cut moves the items and clears the buffer, even when some items were
// rejected. A copy duplicates the items and keeps the buffer for repeated
// pastes. An empty buffer is a no-op.
func (c *Clipboard) Paste(targetID string, p Paster) ([]vfs.Entity, error) {
	switch c.buf.Action {
	case ActionCut:
		items := c.buf.Items
		c.Clear()
		return p.Move(items, targetID)
	case ActionCopy:
		return p.Copy(c.buf.Items, targetID)
	default:
		return nil, nil
	}
}

// Clear empties the clipboard.
func (c *Clipboard) Clear() {
	c.buf = Buffer{}
}

// Empty reports whether nothing is captured.
func (c *Clipboard) Empty() bool {
	return c.buf.Action == ActionNone
}

// Buffer returns a copy of the clipboard contents.
func (c *Clipboard) Buffer() Buffer {
	return Buffer{Action: c.buf.Action, Items: slices.Clone(c.buf.Items)}
}
