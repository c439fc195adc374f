package testing

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/marmos91/dittoexplorer/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite is a contract test suite for store.Backend implementations.
// It tests the interface contract, not implementation details, making it
// reusable across backends (memory, badger, S3, postgres).
//
// Usage:
//
//	func TestMyBackend(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewBackend: func(t *testing.T) store.Backend {
//	            return mybackend.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewBackend creates a fresh, empty backend for each test. The suite
	// closes it when the test ends.
	NewBackend func(t *testing.T) store.Backend

	// PutRaw writes raw bytes under id, bypassing record encoding.
	// Optional: backends that only hold decoded records leave it nil and
	// the corruption tests are skipped.
	PutRaw func(t *testing.T, b store.Backend, id string, raw []byte)
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("PutAndLoad", suite.RunPutTests)
	t.Run("Delete", suite.RunDeleteTests)
	t.Run("Adapter", suite.RunAdapterTests)
}

// RunPutTests checks writes and loads.
func (suite *StoreTestSuite) RunPutTests(t *testing.T) {
	t.Run("LoadEmpty", suite.testLoadEmpty)
	t.Run("PutRoundTrip", suite.testPutRoundTrip)
	t.Run("PutReplaces", suite.testPutReplaces)
	t.Run("PutBatch", suite.testPutBatch)
	t.Run("OptionalFieldsOmitted", suite.testOptionalFields)
	t.Run("SkipsUndecodable", suite.testSkipsUndecodable)
}

// RunDeleteTests checks removal.
func (suite *StoreTestSuite) RunDeleteTests(t *testing.T) {
	t.Run("DeleteExisting", suite.testDeleteExisting)
	t.Run("DeleteUnknown", suite.testDeleteUnknown)
}

// ============================================================================
// Put / Load
// ============================================================================

func (suite *StoreTestSuite) testLoadEmpty(t *testing.T) {
	b := suite.newBackend(t)

	records, err := b.LoadRecords(testContext())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func (suite *StoreTestSuite) testPutRoundTrip(t *testing.T) {
	b := suite.newBackend(t)

	in := FullRecord("file_1")
	require.NoError(t, b.PutRecords(testContext(), []store.Record{in}))

	records, err := b.LoadRecords(testContext())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, in, records[0])
}

func (suite *StoreTestSuite) testPutReplaces(t *testing.T) {
	b := suite.newBackend(t)

	r := FullRecord("file_1")
	require.NoError(t, b.PutRecords(testContext(), []store.Record{r}))

	r.Name = "renamed.txt"
	r.IsTrashed = true
	require.NoError(t, b.PutRecords(testContext(), []store.Record{r}))

	records, err := b.LoadRecords(testContext())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "renamed.txt", records[0].Name)
	assert.True(t, records[0].IsTrashed)
}

func (suite *StoreTestSuite) testPutBatch(t *testing.T) {
	b := suite.newBackend(t)

	var batch []store.Record
	for i := range 25 {
		batch = append(batch, FolderRecord(fmt.Sprintf("folder_%02d", i), "root"))
	}
	require.NoError(t, b.PutRecords(testContext(), batch))

	records, err := b.LoadRecords(testContext())
	require.NoError(t, err)
	assert.Equal(t, ids(batch), ids(records))
}

func (suite *StoreTestSuite) testOptionalFields(t *testing.T) {
	b := suite.newBackend(t)

	root := store.Record{ID: "root", Name: "This PC", Kind: "root"}
	require.NoError(t, b.PutRecords(testContext(), []store.Record{root}))

	records, err := b.LoadRecords(testContext())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].ParentID)
	assert.Nil(t, records[0].SizeBytes)
	assert.Empty(t, records[0].BinaryPayload)
	assert.False(t, records[0].IsTrashed)
}

func (suite *StoreTestSuite) testSkipsUndecodable(t *testing.T) {
	if suite.PutRaw == nil {
		t.Skip("backend stores decoded records only")
	}
	b := suite.newBackend(t)

	require.NoError(t, b.PutRecords(testContext(), []store.Record{
		FolderRecord("folder_a", "root"),
		FolderRecord("folder_c", "root"),
	}))
	suite.PutRaw(t, b, "folder_b", []byte(`[1]`))

	records, err := b.LoadRecords(testContext())
	require.NoError(t, err)
	assert.Equal(t, []string{"folder_a", "folder_c"}, ids(records))
}

// ============================================================================
// Delete
// ============================================================================

func (suite *StoreTestSuite) testDeleteExisting(t *testing.T) {
	b := suite.newBackend(t)

	require.NoError(t, b.PutRecords(testContext(), []store.Record{
		FolderRecord("folder_a", "root"),
		FolderRecord("folder_b", "root"),
	}))
	require.NoError(t, b.DeleteRecord(testContext(), "folder_a"))

	records, err := b.LoadRecords(testContext())
	require.NoError(t, err)
	assert.Equal(t, []string{"folder_b"}, ids(records))
}

func (suite *StoreTestSuite) testDeleteUnknown(t *testing.T) {
	b := suite.newBackend(t)
	assert.NoError(t, b.DeleteRecord(testContext(), "missing"))
}

// ============================================================================
// Helpers
// ============================================================================

func (suite *StoreTestSuite) newBackend(t *testing.T) store.Backend {
	t.Helper()
	b := suite.NewBackend(t)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// FullRecord returns a record with every optional field set.
func FullRecord(id string) store.Record {
	parent := "documents"
	size := int64(11)
	return store.Record{
		ID:            id,
		ParentID:      &parent,
		Name:          "hello.mp3",
		Kind:          "audio",
		SizeBytes:     &size,
		CreatedDate:   "2024-03-09",
		IconHint:      "music",
		CoverRef:      "cover-1",
		BinaryPayload: []byte("hello world"),
		IsTrashed:     false,
	}
}

// FolderRecord returns a minimal folder record.
func FolderRecord(id, parent string) store.Record {
	return store.Record{ID: id, ParentID: &parent, Name: id, Kind: "folder"}
}

func ids(records []store.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	sort.Strings(out)
	return out
}

func testContext() context.Context {
	return context.Background()
}
