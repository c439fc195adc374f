package explorer

import (
	"context"
	"slices"

	"github.com/marmos91/dittoexplorer/internal/logger"
	"github.com/marmos91/dittoexplorer/pkg/settings"
)

// Settings returns a copy of the application settings.
func (s *Session) Settings() settings.AppConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settingsCopy()
}

func (s *Session) settingsCopy() settings.AppConfig {
	cfg := *s.settings
	cfg.CustomBackgrounds = slices.Clone(cfg.CustomBackgrounds)
	if cfg.User != nil {
		u := *cfg.User
		cfg.User = &u
	}
	return cfg
}

// SetTheme replaces the theme and saves the settings.
func (s *Session) SetTheme(ctx context.Context, theme settings.Theme) (settings.AppConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.Theme = theme
	return s.saveSettings(ctx)
}

// AddBackground adds a custom background, selects it and saves the settings.
func (s *Session) AddBackground(ctx context.Context, url string) (settings.AppConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.AddBackground(url)
	return s.saveSettings(ctx)
}

// RemoveBackground drops a custom background and saves the settings.
func (s *Session) RemoveBackground(ctx context.Context, url string) (settings.AppConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.settings.RemoveBackground(url) {
		return s.settingsCopy(), nil
	}
	return s.saveSettings(ctx)
}

// SetUser replaces the user account and saves the settings. An invalid
// account leaves the settings untouched.
func (s *Session) SetUser(ctx context.Context, u settings.UserAccount) (settings.AppConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.settings.SetUser(u); err != nil {
		return s.settingsCopy(), err
	}
	return s.saveSettings(ctx)
}

// ChangePin replaces the account pin and saves the settings.
func (s *Session) ChangePin(ctx context.Context, current, next, confirm string) (settings.AppConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.settings.ChangePin(current, next, confirm); err != nil {
		return s.settingsCopy(), err
	}
	return s.saveSettings(ctx)
}

// saveSettings persists the settings. The in-memory change stands even when
// the write fails. Caller holds s.mu.
func (s *Session) saveSettings(ctx context.Context) (settings.AppConfig, error) {
	if err := settings.Save(ctx, s.settingsStore, s.settings); err != nil {
		logger.Error("Failed to save settings: %v", err)
		return s.settingsCopy(), err
	}
	return s.settingsCopy(), nil
}
