package memory

import (
	"context"
	"testing"

	"github.com/marmos91/dittoexplorer/pkg/store"
	storetest "github.com/marmos91/dittoexplorer/pkg/store/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend(t *testing.T) {
	suite := &storetest.StoreTestSuite{
		NewBackend: func(t *testing.T) store.Backend {
			return NewMemoryBackend()
		},
	}
	suite.Run(t)
}

func TestMemoryBackend_PreservesInsertionOrder(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	require.NoError(t, b.PutRecords(ctx, []store.Record{
		storetest.FolderRecord("c", "root"),
		storetest.FolderRecord("a", "root"),
	}))
	require.NoError(t, b.PutRecords(ctx, []store.Record{storetest.FolderRecord("b", "root")}))
	require.NoError(t, b.PutRecords(ctx, []store.Record{storetest.FolderRecord("c", "a")}))

	records, err := b.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "a", *records[0].ParentID)
	assert.Equal(t, "a", records[1].ID)
	assert.Equal(t, "b", records[2].ID)
}

func TestMemoryBackend_CopiesPayload(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	r := storetest.FullRecord("file_1")
	require.NoError(t, b.PutRecords(ctx, []store.Record{r}))
	r.BinaryPayload[0] = 'X'

	records, err := b.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(records[0].BinaryPayload))
}

func TestMemoryBackend_Closed(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Close())

	err := b.PutRecords(context.Background(), []store.Record{storetest.FolderRecord("a", "root")})
	assert.ErrorIs(t, err, store.ErrClosed)

	_, err = b.LoadRecords(context.Background())
	assert.ErrorIs(t, err, store.ErrClosed)
}
