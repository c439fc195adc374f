package vfs

import (
	"context"
	"testing"

	"github.com/marmos91/dittoexplorer/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestImport_ReusesFolders(t *testing.T) {
	m, p := newSeededModel(t, WithMedia(media.NewRegistry()))
	existing := mustCreate(t, m, "documents", KindFolder, "Album")

	res, err := m.Import(t.Context(), "documents", []ImportEntry{
		{Path: "Album/one.png", Data: pngBytes},
		{Path: "Album/Live/two.png", Data: pngBytes},
		{Path: "Album/Live/three.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
		{Path: "loose.txt", Data: []byte("hello")},
	})
	require.NoError(t, err)

	children := m.ListChildren(existing.ID, false, "", DefaultSort)
	assert.Equal(t, []string{"Live", "one.png"}, names(children))

	live := children[0]
	assert.Equal(t, []string{"three.pdf", "two.png"}, names(m.ListChildren(live.ID, false, "", DefaultSort)))

	// Only one "Live" folder was created for both entries.
	assert.Len(t, res.Created, 5)
	assert.Equal(t, []string{"loose.txt"}, names(res.TopLevel))
	assert.Len(t, p.now, 5)

	one := children[1]
	assert.Equal(t, KindImage, one.Kind)
	assert.NotEmpty(t, one.MediaRef)
	assert.Equal(t, int64(len(pngBytes)), one.Size())
	assert.Equal(t, pngBytes, one.Payload)
}

func TestImport_SkipsTrashedFolder(t *testing.T) {
	m, _ := newSeededModel(t)
	old := mustCreate(t, m, RootID, KindFolder, "Photos")
	_, err := m.SoftDelete([]string{old.ID})
	require.NoError(t, err)

	res, err := m.Import(t.Context(), RootID, []ImportEntry{{Path: "Photos/a.png", Data: pngBytes}})
	require.NoError(t, err)

	require.Len(t, res.Created, 2)
	assert.NotEqual(t, old.ID, res.Created[0].ID)
	assert.Equal(t, []Entity{res.Created[0]}, res.TopLevel)
}

func TestImport_FailuresAreSkipped(t *testing.T) {
	m, p := newSeededModel(t)
	p.failNow = errStoreDown

	res, err := m.Import(t.Context(), "downloads", []ImportEntry{
		{Path: "///", Data: []byte("x")},
		{Path: "ok.txt", Data: []byte("x")},
	})
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrInvalidName))
	assert.Equal(t, 1, res.Failed)

	// Store failures keep the entity in memory.
	require.Len(t, res.Created, 1)
	_, ok := m.Lookup(res.Created[0].ID)
	assert.True(t, ok)
}

func TestImport_InvalidTarget(t *testing.T) {
	m, _ := newSeededModel(t)
	_, err := m.Import(t.Context(), "missing", []ImportEntry{{Path: "a.txt"}})
	assert.True(t, IsCode(err, ErrInvalidParent))
	assert.Equal(t, 8, m.Len())
}

func TestImport_StopsOnCancelledContext(t *testing.T) {
	m, _ := newSeededModel(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	res, err := m.Import(ctx, RootID, []ImportEntry{{Path: "a.txt", Data: []byte("x")}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Created)
}

func TestKindForMIME(t *testing.T) {
	tests := []struct {
		ct   string
		want Kind
	}{
		{"image/jpeg", KindImage},
		{"application/pdf", KindPDF},
		{"application/vnd.ms-excel", KindSpreadsheet},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", KindSpreadsheet},
		{"application/msword", KindDocument},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", KindDocument},
		{"video/mp4", KindVideo},
		{"audio/mpeg", KindAudio},
		{"text/plain", KindFile},
		{"", KindFile},
	}
	for _, tt := range tests {
		t.Run(tt.ct, func(t *testing.T) {
			assert.Equal(t, tt.want, KindForMIME(tt.ct))
		})
	}
}

func TestDetectKind(t *testing.T) {
	assert.Equal(t, KindImage, DetectKind("noext", "", pngBytes))
	assert.Equal(t, KindPDF, DetectKind("paper.pdf", "", []byte("not really a pdf")))
	assert.Equal(t, KindAudio, DetectKind("x", "audio/ogg", nil))
	assert.Equal(t, KindFile, DetectKind("notes", "", []byte("plain text")))
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseKind("excel")
	require.NoError(t, err)
	assert.Equal(t, KindSpreadsheet, got)

	got, err = ParseKind("word")
	require.NoError(t, err)
	assert.Equal(t, KindDocument, got)

	_, err = ParseKind("symlink")
	assert.Error(t, err)

	assert.True(t, KindDrive.IsContainer())
	assert.False(t, KindApp.IsContainer())
	assert.True(t, KindVideo.IsMedia())
	assert.False(t, KindPDF.IsMedia())
}
