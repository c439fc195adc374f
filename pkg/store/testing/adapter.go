package testing

import (
	"testing"

	"github.com/marmos91/dittoexplorer/pkg/media"
	"github.com/marmos91/dittoexplorer/pkg/store"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAdapterTests checks the entity-level contract on top of the backend.
func (suite *StoreTestSuite) RunAdapterTests(t *testing.T) {
	t.Run("SeedRoundTrip", suite.testSeedRoundTrip)
	t.Run("MediaHandlesRegenerated", suite.testMediaHandlesRegenerated)
	t.Run("MirrorFlush", suite.testMirrorFlush)
}

func (suite *StoreTestSuite) testSeedRoundTrip(t *testing.T) {
	a := store.NewAdapter(suite.newBackend(t), nil)

	seed := vfs.Seed()
	require.NoError(t, a.PutAll(testContext(), seed))

	loaded, err := a.LoadAll(testContext())
	require.NoError(t, err)
	assert.ElementsMatch(t, seed, loaded)
}

func (suite *StoreTestSuite) testMediaHandlesRegenerated(t *testing.T) {
	first := media.NewRegistry()
	e := vfs.Entity{
		ID:       "file_img",
		ParentID: "pictures",
		Name:     "cat.png",
		Kind:     vfs.KindImage,
		Payload:  []byte("pixels"),
		MediaRef: first.Bind([]byte("pixels")),
	}
	doc := vfs.Entity{ID: "file_doc", ParentID: "documents", Name: "a.pdf", Kind: vfs.KindPDF, Payload: []byte("%PDF")}

	backend := suite.newBackend(t)
	require.NoError(t, store.NewAdapter(backend, first).PutAll(testContext(), []vfs.Entity{e, doc}))

	records, err := backend.LoadRecords(testContext())
	require.NoError(t, err)
	for _, r := range records {
		data, err := store.EncodeRecord(r)
		require.NoError(t, err)
		assert.NotContains(t, string(data), media.HandleScheme)
	}

	second := media.NewRegistry()
	loaded, err := store.NewAdapter(backend, second).LoadAll(testContext())
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	for _, got := range loaded {
		switch got.ID {
		case e.ID:
			assert.True(t, second.Owns(got.MediaRef))
			assert.NotEqual(t, e.MediaRef, got.MediaRef)
			data, _, ok := second.Resolve(got.MediaRef)
			require.True(t, ok)
			assert.Equal(t, e.Payload, data)
		case doc.ID:
			assert.Empty(t, got.MediaRef)
		}
	}
}

func (suite *StoreTestSuite) testMirrorFlush(t *testing.T) {
	backend := suite.newBackend(t)
	mirror := store.NewMirror(store.NewAdapter(backend, nil), nil)
	t.Cleanup(func() { _ = mirror.Close() })

	m := vfs.New(vfs.Seed(), vfs.WithPersister(mirror))
	folder, err := m.Create(vfs.RootID, vfs.KindFolder, "Projects")
	require.NoError(t, err)
	_, err = m.Rename(folder.ID, "Work")
	require.NoError(t, err)

	require.NoError(t, mirror.Flush(testContext()))

	records, err := backend.LoadRecords(testContext())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Work", records[0].Name)
}
