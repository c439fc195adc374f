// Package settings holds the per-user application configuration (theme,
// custom backgrounds, user account) and persists it as keyed JSON blobs.
//
// The configuration lives outside the entity store. Every key may be absent
// on first run; Load substitutes defaults for missing keys.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

// Blob keys in the settings store.
const (
	KeyTheme       = "theme"
	KeyBackgrounds = "backgrounds"
	KeyUser        = "user"
)

// DefaultBackgrounds are the built-in wallpapers. They cannot be removed.
var DefaultBackgrounds = []string{
	"https://images.unsplash.com/photo-1618005182384-a83a8bd57fbe?q=80&w=2564&auto=format&fit=crop",
	"https://images.unsplash.com/photo-1477346611705-65d1883cee1e?q=80&w=2070&auto=format&fit=crop",
	"https://images.unsplash.com/photo-1506744038136-46273834b3fb?q=80&w=2070&auto=format&fit=crop",
	"https://images.unsplash.com/photo-1536532184021-da4272366502?q=80&w=2076&auto=format&fit=crop",
}

var (
	// ErrWrongPin is returned by ChangePin when the current pin does not match.
	ErrWrongPin = errors.New("current pin is incorrect")

	// ErrPinMismatch is returned by ChangePin when the confirmation differs.
	ErrPinMismatch = errors.New("new pin and confirmation do not match")

	// ErrNoUser is returned when an operation needs an account and none exists.
	ErrNoUser = errors.New("no user account")

	// ErrInvalidUser wraps account validation failures.
	ErrInvalidUser = errors.New("invalid user account")
)

var validate = validator.New()

// Theme is the appearance configuration.
type Theme struct {
	IsDark          bool   `json:"isDark" yaml:"is_dark"`
	IsTransparent   bool   `json:"isTransparent" yaml:"is_transparent"`
	BackgroundImage string `json:"backgroundImage" yaml:"background_image"`
}

// DefaultTheme is light, opaque, on the first built-in background.
func DefaultTheme() Theme {
	return Theme{BackgroundImage: DefaultBackgrounds[0]}
}

// UserAccount is the local account. The pin is stored in plain text.
type UserAccount struct {
	Handle      string `json:"handle" validate:"required,startswith=@,min=3"`
	DisplayName string `json:"displayName" validate:"required"`
	Pin         string `json:"pin" validate:"required,min=4"`
	Avatar      string `json:"avatar,omitempty"`
}

// Validate checks the account fields.
func (u *UserAccount) Validate() error {
	if err := validate.Struct(u); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("%w: user.%s: validation failed on '%s' tag", ErrInvalidUser, e.Field(), e.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	return nil
}

// AppConfig is the full settings document.
type AppConfig struct {
	Theme             Theme        `json:"theme"`
	CustomBackgrounds []string     `json:"customBackgrounds"`
	User              *UserAccount `json:"user,omitempty"`
}

// Default returns the first-run configuration.
func Default() *AppConfig {
	return &AppConfig{Theme: DefaultTheme(), CustomBackgrounds: []string{}}
}

// Backgrounds returns the built-in backgrounds followed by the custom ones.
func (c *AppConfig) Backgrounds() []string {
	return append(slices.Clone(DefaultBackgrounds), c.CustomBackgrounds...)
}

// AddBackground appends a custom background and selects it.
func (c *AppConfig) AddBackground(url string) {
	if !slices.Contains(c.CustomBackgrounds, url) {
		c.CustomBackgrounds = append(c.CustomBackgrounds, url)
	}
	c.Theme.BackgroundImage = url
}

// RemoveBackground drops a custom background. Removing the selected one
// falls back to the first built-in background. Built-in backgrounds are
// ignored; the return value reports whether anything was removed.
func (c *AppConfig) RemoveBackground(url string) bool {
	idx := slices.Index(c.CustomBackgrounds, url)
	if idx < 0 {
		return false
	}
	c.CustomBackgrounds = slices.Delete(c.CustomBackgrounds, idx, idx+1)
	if c.Theme.BackgroundImage == url {
		c.Theme.BackgroundImage = DefaultBackgrounds[0]
	}
	return true
}

// SetUser validates and stores the account.
func (c *AppConfig) SetUser(u UserAccount) error {
	if err := u.Validate(); err != nil {
		return err
	}
	c.User = &u
	return nil
}

// ChangePin replaces the account pin after checking the current one.
func (c *AppConfig) ChangePin(current, next, confirm string) error {
	if c.User == nil {
		return ErrNoUser
	}
	if current != c.User.Pin {
		return ErrWrongPin
	}
	if next != confirm {
		return ErrPinMismatch
	}
	u := *c.User
	u.Pin = next
	return c.SetUser(u)
}

// Store is a keyed blob store for settings.
type Store interface {
	// Get returns the blob for key; found is false when the key is absent.
	Get(ctx context.Context, key string) (data []byte, found bool, err error)

	// Put writes the blob for key.
	Put(ctx context.Context, key string, data []byte) error
}

// Load reads the configuration. Missing keys keep their defaults; a present
// but undecodable blob is an error.
func Load(ctx context.Context, s Store) (*AppConfig, error) {
	cfg := Default()

	if err := loadKey(ctx, s, KeyTheme, &cfg.Theme); err != nil {
		return nil, err
	}
	if err := loadKey(ctx, s, KeyBackgrounds, &cfg.CustomBackgrounds); err != nil {
		return nil, err
	}
	if cfg.CustomBackgrounds == nil {
		cfg.CustomBackgrounds = []string{}
	}

	var user UserAccount
	data, found, err := s.Get(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", KeyUser, err)
	}
	if found {
		if err := json.Unmarshal(data, &user); err != nil {
			return nil, fmt.Errorf("decode %s: %w", KeyUser, err)
		}
		cfg.User = &user
	}

	return cfg, nil
}

func loadKey(ctx context.Context, s Store, key string, dst any) error {
	data, found, err := s.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !found {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Save writes every key. The user key is only written when an account exists.
func Save(ctx context.Context, s Store, cfg *AppConfig) error {
	if err := saveKey(ctx, s, KeyTheme, cfg.Theme); err != nil {
		return err
	}
	bgs := cfg.CustomBackgrounds
	if bgs == nil {
		bgs = []string{}
	}
	if err := saveKey(ctx, s, KeyBackgrounds, bgs); err != nil {
		return err
	}
	if cfg.User != nil {
		return saveKey(ctx, s, KeyUser, cfg.User)
	}
	return nil
}

func saveKey(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Put(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
