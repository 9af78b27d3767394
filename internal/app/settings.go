package app

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-storefront/internal/form"
	"github.com/xenking/kart-storefront/internal/storage"
)

// Default display settings.
const (
	DefaultLanguage = "en"
	DefaultTheme    = "system"
)

// Settings are the locally stored display preferences.
type Settings struct {
	Language  string
	Theme     string
	Onboarded bool
	// Stored lists the well-known keys currently present in storage.
	Stored []string
}

// Settings reads the stored preferences, falling back to defaults.
func (a *App) Settings(ctx context.Context) Settings {
	s := Settings{
		Language:  DefaultLanguage,
		Theme:     DefaultTheme,
		Onboarded: a.Storage.OnboardingCompleted(ctx),
	}
	if v, ok := a.Storage.LoadLanguage(ctx); ok {
		s.Language = v
	}
	if v, ok := a.Storage.LoadTheme(ctx); ok {
		s.Theme = v
	}
	present := a.Storage.GetMany(ctx, storage.Keys...)
	for _, key := range storage.Keys {
		if _, ok := present[key]; ok {
			s.Stored = append(s.Stored, key)
		}
	}
	return s
}

// UpdateSettings validates f and stores its non-empty fields.
func (a *App) UpdateSettings(ctx context.Context, f form.Preferences) (Settings, error) {
	f.Normalize()
	if err := form.Validate(f); err != nil {
		return Settings{}, err
	}
	if f.Language != "" {
		if err := a.Storage.SaveLanguage(ctx, f.Language); err != nil {
			return Settings{}, errors.Wrap(err, "save language")
		}
	}
	if f.Theme != "" {
		if err := a.Storage.SaveTheme(ctx, f.Theme); err != nil {
			return Settings{}, errors.Wrap(err, "save theme")
		}
	}
	return a.Settings(ctx), nil
}

// CompleteOnboarding marks onboarding as finished.
func (a *App) CompleteOnboarding(ctx context.Context) error {
	if err := a.Storage.SetOnboardingCompleted(ctx, true); err != nil {
		return errors.Wrap(err, "save onboarding")
	}
	return nil
}
