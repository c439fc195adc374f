package explorer

import (
	"context"
	"errors"
	"testing"

	"github.com/marmos91/dittoexplorer/pkg/navigation"
	"github.com/marmos91/dittoexplorer/pkg/selection"
	"github.com/marmos91/dittoexplorer/pkg/settings"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	return New(vfs.New(vfs.Seed()), opts...)
}

func mustCreate(t *testing.T, s *Session, parent string, kind vfs.Kind, name string) vfs.Entity {
	t.Helper()
	e, err := s.Model().Create(parent, kind, name)
	require.NoError(t, err)
	return e
}

func listingNames(s *Session) []string {
	var out []string
	for _, e := range s.Listing() {
		out = append(out, e.Name)
	}
	return out
}

func TestNew_InitialState(t *testing.T) {
	s := newTestSession(t)
	st := s.State()

	assert.Equal(t, s.ID(), st.SessionID)
	assert.Equal(t, vfs.RootID, st.Path)
	assert.Equal(t, "This PC", st.Title)
	assert.Len(t, st.Tabs, 1)
	assert.Equal(t, vfs.DefaultSort, st.Sort)
	assert.Equal(t, []Crumb{{ID: vfs.RootID, Name: "This PC", Kind: vfs.KindRoot}}, st.Breadcrumbs)
	assert.Equal(t,
		[]string{"Desktop", "Documents", "Downloads", "Local Disk (C:)", "Music", "Pictures", "Videos"},
		listingNames(s))
}

func TestCutNavigatePaste(t *testing.T) {
	s := newTestSession(t)
	f := mustCreate(t, s, vfs.RootID, vfs.KindFolder, "F")
	var ids []string
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		ids = append(ids, mustCreate(t, s, "documents", vfs.KindFile, name).ID)
	}

	require.NoError(t, s.Navigate("documents"))
	s.Click(ids[0], false)
	s.Click(ids[1], true)
	s.Click(ids[2], true)
	require.NoError(t, s.Cut())

	require.NoError(t, s.Navigate(f.ID))
	assert.Empty(t, s.State().Selection, "navigating clears the selection")

	moved, err := s.Paste()
	require.NoError(t, err)
	assert.Len(t, moved, 3)
	for _, id := range ids {
		e, err := s.Entity(id)
		require.NoError(t, err)
		assert.Equal(t, f.ID, e.ParentID)
	}
	assert.Empty(t, s.State().Clipboard.Items)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, listingNames(s))
}

func TestCopyPasteSameFolder(t *testing.T) {
	s := newTestSession(t)
	src := mustCreate(t, s, vfs.RootID, vfs.KindPDF, "report.pdf")

	s.Click(src.ID, false)
	require.NoError(t, s.Copy())
	copies, err := s.Paste()
	require.NoError(t, err)

	require.Len(t, copies, 1)
	assert.Equal(t, "report - Copy.pdf", copies[0].Name)
	assert.NotEqual(t, src.ID, copies[0].ID)
	assert.Equal(t, vfs.RootID, copies[0].ParentID)
	assert.Equal(t, selection.ActionCopy, s.State().Clipboard.Action)
}

func TestClipboardNeedsSelection(t *testing.T) {
	s := newTestSession(t)
	assert.ErrorIs(t, s.Cut(), ErrEmptySelection)
	assert.ErrorIs(t, s.Copy(), ErrEmptySelection)

	pasted, err := s.Paste()
	assert.NoError(t, err)
	assert.Empty(t, pasted)
}

func TestNavigation_ResetsView(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Navigate("documents"))
	s.SetSearch("x")
	s.Click("whatever", false)

	require.True(t, s.Back())
	st := s.State()
	assert.Equal(t, vfs.RootID, st.Path)
	assert.Empty(t, st.Search)
	assert.Empty(t, st.Selection)
	assert.True(t, st.CanGoForward)

	require.True(t, s.Forward())
	assert.Equal(t, "documents", s.State().Path)
	require.True(t, s.Up())
	assert.Equal(t, vfs.RootID, s.State().Path)
	assert.False(t, s.Up())

	err := s.Navigate("missing")
	assert.True(t, vfs.IsCode(err, vfs.ErrNotFound))
}

func TestTabs(t *testing.T) {
	s := newTestSession(t)
	first := s.State().ActiveTab
	require.NoError(t, s.Navigate("music"))

	second := s.NewTab()
	assert.Equal(t, second.ID, s.State().ActiveTab)
	assert.Equal(t, vfs.RootID, s.State().Path)

	require.NoError(t, s.ActivateTab(first))
	assert.Equal(t, "music", s.State().Path)

	require.NoError(t, s.CloseTab(second.ID))
	assert.ErrorIs(t, s.CloseTab(first), navigation.ErrLastTab)
	assert.ErrorIs(t, s.ActivateTab("nope"), navigation.ErrTabNotFound)
}

func TestOpenItem(t *testing.T) {
	s := newTestSession(t)
	img := mustCreate(t, s, "pictures", vfs.KindImage, "cat.png")
	doc := mustCreate(t, s, "documents", vfs.KindDocument, "notes.docx")

	res, err := s.OpenItem("pictures")
	require.NoError(t, err)
	assert.True(t, res.Navigated)
	assert.Equal(t, "pictures", s.State().Path)

	res, err = s.OpenItem(img.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Preview)
	assert.Equal(t, img.ID, res.Preview.ID)

	res, err = s.OpenItem(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, OpenResult{}, res)

	_, err = s.OpenItem("missing")
	assert.True(t, vfs.IsCode(err, vfs.ErrNotFound))

	// Nothing opens from the recycle bin.
	require.NoError(t, s.Navigate(vfs.TrashID))
	res, err = s.OpenItem("documents")
	require.NoError(t, err)
	assert.False(t, res.Navigated)
	assert.Equal(t, vfs.TrashID, s.State().Path)
}

func TestNewFolderAndRename(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Navigate("documents"))

	f, err := s.NewFolder()
	require.NoError(t, err)
	assert.Equal(t, NewFolderName, f.Name)
	st := s.State()
	assert.Equal(t, f.ID, st.Renaming)
	assert.Equal(t, []string{f.ID}, st.Selection)

	_, err = s.Rename(f.ID, "   ")
	assert.True(t, vfs.IsCode(err, vfs.ErrInvalidName))
	assert.Empty(t, s.State().Renaming)

	id, err := s.BeginRename()
	require.NoError(t, err)
	assert.Equal(t, f.ID, id)

	renamed, err := s.Rename(f.ID, "Projects")
	require.NoError(t, err)
	assert.Equal(t, "Projects", renamed.Name)
	assert.Empty(t, s.State().Renaming)

	s.ClearSelection()
	_, err = s.BeginRename()
	assert.ErrorIs(t, err, ErrEmptySelection)

	require.NoError(t, s.Navigate(vfs.TrashID))
	_, err = s.NewFolder()
	assert.ErrorIs(t, err, ErrTrashView)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	s := newTestSession(t)
	a := mustCreate(t, s, vfs.RootID, vfs.KindFile, "a.txt")

	_, err := s.RequestDelete()
	assert.ErrorIs(t, err, ErrEmptySelection)

	s.Click(a.ID, false)
	p, err := s.RequestDelete()
	require.NoError(t, err)
	assert.Equal(t, Pending{Kind: PendingDelete, IDs: []string{a.ID}}, p)

	// Nothing happens until confirmed.
	e, _ := s.Entity(a.ID)
	assert.False(t, e.IsTrashed)

	s.CancelPending()
	assert.Nil(t, s.State().Pending)
	_, err = s.ConfirmPending()
	assert.ErrorIs(t, err, ErrNoPending)

	_, err = s.RequestDelete()
	require.NoError(t, err)
	ids, err := s.ConfirmPending()
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids)

	e, _ = s.Entity(a.ID)
	assert.True(t, e.IsTrashed)
	assert.Empty(t, s.State().Selection)
}

func TestTrashFlow(t *testing.T) {
	s := newTestSession(t)
	a := mustCreate(t, s, vfs.RootID, vfs.KindFile, "a.txt")
	b := mustCreate(t, s, vfs.RootID, vfs.KindFile, "b.txt")
	_, err := s.Model().SoftDelete([]string{a.ID, b.ID})
	require.NoError(t, err)

	_, err = s.Restore()
	assert.ErrorIs(t, err, ErrNotTrashView)

	require.NoError(t, s.Navigate(vfs.TrashID))
	assert.Equal(t, []string{"a.txt", "b.txt"}, listingNames(s))

	// Restore.
	s.Click(a.ID, false)
	restored, err := s.Restore()
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.False(t, restored[0].IsTrashed)

	// Delete inside the trash purges.
	s.Click(b.ID, false)
	p, err := s.RequestDelete()
	require.NoError(t, err)
	assert.Equal(t, PendingPurge, p.Kind)
	_, err = s.ConfirmPending()
	require.NoError(t, err)
	_, err = s.Entity(b.ID)
	assert.True(t, vfs.IsCode(err, vfs.ErrNotFound))

	// Empty trash.
	_, err = s.Model().SoftDelete([]string{a.ID})
	require.NoError(t, err)
	assert.Equal(t, PendingEmptyTrash, s.RequestEmptyTrash().Kind)
	removed, err := s.ConfirmPending()
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, removed)
	assert.Empty(t, s.Listing())
}

func TestDrop(t *testing.T) {
	s := newTestSession(t)
	a := mustCreate(t, s, vfs.RootID, vfs.KindFolder, "A")
	b := mustCreate(t, s, a.ID, vfs.KindFolder, "B")
	s.Click(a.ID, false)

	_, err := s.Drop([]string{a.ID}, b.ID)
	assert.True(t, vfs.IsCode(err, vfs.ErrCycleDetected))
	assert.Empty(t, s.State().Selection)

	moved, err := s.Drop([]string{b.ID}, "documents")
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, "documents", moved[0].ParentID)
}

func TestDrop_OntoRecycleBin(t *testing.T) {
	s := newTestSession(t)
	f := mustCreate(t, s, "documents", vfs.KindFile, "notes.txt")
	s.Click(f.ID, false)

	trashed, err := s.Drop([]string{f.ID}, vfs.TrashID)
	require.NoError(t, err)
	require.Len(t, trashed, 1)
	assert.True(t, trashed[0].IsTrashed)
	assert.Equal(t, "documents", trashed[0].ParentID)
	assert.Empty(t, s.State().Selection)

	inTrash := s.Model().ListTrash("", vfs.DefaultSort)
	require.Len(t, inTrash, 1)
	assert.Equal(t, f.ID, inTrash[0].ID)
}

func TestMarquee(t *testing.T) {
	s := newTestSession(t)
	s.Click("stale", false)

	s.BeginMarquee(selection.Point{X: 0, Y: 0})
	assert.Empty(t, s.State().Selection)
	assert.NotNil(t, s.State().Marquee)

	ids := s.UpdateMarquee(selection.Point{X: 50, Y: 50}, []selection.ItemBounds{
		{ID: "documents", Bounds: selection.Rect{Left: 10, Top: 10, Right: 20, Bottom: 20}},
		{ID: "music", Bounds: selection.Rect{Left: 60, Top: 60, Right: 70, Bottom: 70}},
	})
	assert.Equal(t, []string{"documents"}, ids)

	s.EndMarquee()
	assert.Nil(t, s.State().Marquee)
	assert.Equal(t, []string{"documents"}, s.State().Selection)
}

func TestSortAndSearch(t *testing.T) {
	s := newTestSession(t)

	s.SetSearch("DO")
	assert.Equal(t, []string{"Documents", "Downloads"}, listingNames(s))

	cfg := s.ToggleSortDirection()
	assert.Equal(t, vfs.Descending, cfg.Direction)
	assert.Equal(t, []string{"Downloads", "Documents"}, listingNames(s))

	assert.Error(t, s.SetSort(vfs.SortConfig{Key: "colour", Direction: vfs.Ascending}))
	assert.Error(t, s.SetSort(vfs.SortConfig{Key: vfs.SortBySize, Direction: "up"}))
	require.NoError(t, s.SetSort(vfs.SortConfig{Key: vfs.SortBySize, Direction: vfs.Ascending}))
	assert.Equal(t, vfs.SortBySize, s.State().Sort.Key)
}

func TestUpload_SelectsTopLevel(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Navigate("documents"))

	res, err := s.Upload(context.Background(), []vfs.ImportEntry{
		{Path: "album/song.mp3", ContentType: "audio/mpeg", Data: []byte("ID3")},
		{Path: "album/cover.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}},
		{Path: "readme.txt", ContentType: "text/plain", Data: []byte("hi")},
	})
	require.NoError(t, err)
	assert.Len(t, res.Created, 4)
	require.Len(t, res.TopLevel, 2)

	assert.ElementsMatch(t, []string{res.TopLevel[0].ID, res.TopLevel[1].ID}, s.State().Selection)

	require.NoError(t, s.Navigate(vfs.TrashID))
	_, err = s.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, ErrTrashView)
}

func TestDropFiles_RedirectsWithoutHistory(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Navigate("documents"))

	res, err := s.DropFiles(context.Background(), "music", []vfs.ImportEntry{
		{Path: "track.mp3", ContentType: "audio/mpeg", Data: []byte("ID3")},
	})
	require.NoError(t, err)
	require.Len(t, res.TopLevel, 1)
	assert.Equal(t, vfs.KindAudio, res.TopLevel[0].Kind)

	st := s.State()
	assert.Equal(t, "music", st.Path)
	assert.Equal(t, []string{res.TopLevel[0].ID}, st.Selection)

	tab := st.Tabs[0]
	assert.Equal(t, []string{vfs.RootID, "documents"}, tab.History)

	_, err = s.DropFiles(context.Background(), "missing", nil)
	assert.True(t, vfs.IsCode(err, vfs.ErrNotFound))
	assert.Equal(t, "music", s.State().Path)
}

func TestContent(t *testing.T) {
	s := newTestSession(t)
	res, err := s.Upload(context.Background(), []vfs.ImportEntry{
		{Path: "hello.txt", Data: []byte("hello world")},
	})
	require.NoError(t, err)
	require.Len(t, res.Created, 1)

	c, err := s.Content(res.Created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", c.Name)
	assert.Equal(t, []byte("hello world"), c.Data)
	assert.Contains(t, c.ContentType, "text/plain")

	_, err = s.Content("documents")
	assert.True(t, vfs.IsCode(err, vfs.ErrInvalidArgument))
}

func TestSetCover(t *testing.T) {
	s := newTestSession(t)
	song := mustCreate(t, s, "music", vfs.KindAudio, "song.mp3")

	e, err := s.SetCover(song.ID, "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", e.CoverRef)

	_, err = s.SetCover("documents", "x")
	assert.True(t, vfs.IsCode(err, vfs.ErrInvalidArgument))
}

type failingSettingsStore struct{ settings.MemoryStore }

func (*failingSettingsStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemoryStore()
	s := newTestSession(t, WithSettings(settings.Default(), store))

	cfg, err := s.AddBackground(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Theme.BackgroundImage)

	cfg, err = s.SetTheme(ctx, settings.Theme{IsDark: true, BackgroundImage: "custom"})
	require.NoError(t, err)
	assert.True(t, cfg.Theme.IsDark)

	cfg, err = s.RemoveBackground(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultBackgrounds[0], cfg.Theme.BackgroundImage)

	loaded, err := settings.Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)

	// Returned copies are detached from the session.
	cfg.CustomBackgrounds = append(cfg.CustomBackgrounds, "tampered")
	assert.Empty(t, s.Settings().CustomBackgrounds)
}

func TestSettings_UserAccount(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemoryStore()
	s := newTestSession(t, WithSettings(settings.Default(), store))

	_, err := s.ChangePin(ctx, "", "1234", "1234")
	assert.ErrorIs(t, err, settings.ErrNoUser)

	_, err = s.SetUser(ctx, settings.UserAccount{Handle: "ada", DisplayName: "Ada", Pin: "1234"})
	assert.ErrorIs(t, err, settings.ErrInvalidUser)
	assert.Nil(t, s.Settings().User)

	cfg, err := s.SetUser(ctx, settings.UserAccount{Handle: "@ada", DisplayName: "Ada", Pin: "1234"})
	require.NoError(t, err)
	require.NotNil(t, cfg.User)

	_, err = s.ChangePin(ctx, "0000", "5678", "5678")
	assert.ErrorIs(t, err, settings.ErrWrongPin)

	_, err = s.ChangePin(ctx, "1234", "5678", "5678")
	require.NoError(t, err)

	loaded, err := settings.Load(ctx, store)
	require.NoError(t, err)
	require.NotNil(t, loaded.User)
	assert.Equal(t, "5678", loaded.User.Pin)
}

func TestSettings_SaveFailureKeepsChange(t *testing.T) {
	s := newTestSession(t, WithSettings(nil, &failingSettingsStore{}))

	_, err := s.AddBackground(context.Background(), "custom")
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, "custom", s.Settings().Theme.BackgroundImage)
}
