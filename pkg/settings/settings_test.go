package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FirstRunDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), NewMemoryStore())
	require.NoError(t, err)

	assert.Equal(t, DefaultTheme(), cfg.Theme)
	assert.False(t, cfg.Theme.IsDark)
	assert.Equal(t, DefaultBackgrounds[0], cfg.Theme.BackgroundImage)
	assert.Empty(t, cfg.CustomBackgrounds)
	assert.Nil(t, cfg.User)
	assert.Len(t, cfg.Backgrounds(), 4)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(t.TempDir(), "nested", "settings.yaml")),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Theme.IsDark = true
			cfg.AddBackground("data:image/png;base64,AAAA")
			require.NoError(t, cfg.SetUser(UserAccount{Handle: "@ada", DisplayName: "Ada", Pin: "1234"}))

			require.NoError(t, Save(ctx, s, cfg))

			loaded, err := Load(ctx, s)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoad_CorruptBlob(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, KeyTheme, []byte("{not json")))

	_, err := Load(ctx, s)
	assert.ErrorContains(t, err, "decode theme")
}

func TestSave_SkipsMissingUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, Save(ctx, s, Default()))

	_, found, err := s.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBackgrounds(t *testing.T) {
	cfg := Default()

	cfg.AddBackground("custom-1")
	cfg.AddBackground("custom-2")
	assert.Equal(t, "custom-2", cfg.Theme.BackgroundImage)
	assert.Equal(t, []string{"custom-1", "custom-2"}, cfg.CustomBackgrounds)

	assert.True(t, cfg.RemoveBackground("custom-1"))
	assert.Equal(t, "custom-2", cfg.Theme.BackgroundImage, "removing an unselected background keeps the selection")

	assert.True(t, cfg.RemoveBackground("custom-2"))
	assert.Equal(t, DefaultBackgrounds[0], cfg.Theme.BackgroundImage)

	assert.False(t, cfg.RemoveBackground(DefaultBackgrounds[1]))
	assert.Len(t, cfg.Backgrounds(), len(DefaultBackgrounds))
}

func TestUserAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    UserAccount
		wantErr string
	}{
		{"valid", UserAccount{Handle: "@bob", DisplayName: "Bob", Pin: "0000"}, ""},
		{"missing at", UserAccount{Handle: "bob", DisplayName: "Bob", Pin: "0000"}, "Handle"},
		{"short handle", UserAccount{Handle: "@b", DisplayName: "Bob", Pin: "0000"}, "Handle"},
		{"short pin", UserAccount{Handle: "@bob", DisplayName: "Bob", Pin: "12"}, "Pin"},
		{"no name", UserAccount{Handle: "@bob", Pin: "1234"}, "DisplayName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestChangePin(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.ChangePin("", "1234", "1234"), ErrNoUser)

	require.NoError(t, cfg.SetUser(UserAccount{Handle: "@ada", DisplayName: "Ada", Pin: "1234"}))

	assert.ErrorIs(t, cfg.ChangePin("9999", "5678", "5678"), ErrWrongPin)
	assert.ErrorIs(t, cfg.ChangePin("1234", "5678", "5679"), ErrPinMismatch)
	assert.ErrorContains(t, cfg.ChangePin("1234", "12", "12"), "Pin")
	assert.Equal(t, "1234", cfg.User.Pin)

	require.NoError(t, cfg.ChangePin("1234", "5678", "5678"))
	assert.Equal(t, "5678", cfg.User.Pin)
}

func TestFileStore_Layout(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := NewFileStore(path)

	_, found, err := s.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Put(ctx, KeyBackgrounds, []byte(`["a"]`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backgrounds:")

	// A second store over the same file sees the data.
	got, found, err := NewFileStore(path).Get(ctx, KeyBackgrounds)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `["a"]`, string(got))
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0600))

	_, _, err := NewFileStore(path).Get(context.Background(), KeyTheme)
	assert.ErrorContains(t, err, "parse settings")
}
