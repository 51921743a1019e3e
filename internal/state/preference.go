package state

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/rojitobot/internal/config"
	"github.com/edgard/rojitobot/internal/kv"
)

// PreferenceStore keeps the reply language chosen by each user.
type PreferenceStore struct {
	rec         *record
	defaultLang string
}

// NewPreferenceStore creates a PreferenceStore that answers defaultLang for
// users without a stored choice.
func NewPreferenceStore(store kv.Store, log *slog.Logger, defaultLang string, opts ...Option) *PreferenceStore {
	return &PreferenceStore{
		rec:         newRecord(store, log, "preference_store", opts),
		defaultLang: defaultLang,
	}
}

// Default returns the fallback language tag.
func (p *PreferenceStore) Default() string {
	return p.defaultLang
}

// GetLanguage returns the stored tag for userID or the default.
func (p *PreferenceStore) GetLanguage(ctx context.Context, userID int64) string {
	tag := read[string](ctx, p.rec, languageKey(userID))
	switch {
	case tag == "":
		return p.defaultLang
	case !config.IsSupportedLanguage(tag):
		p.rec.log.WarnContext(ctx, "Ignoring unsupported stored language", "user_id", userID, "tag", tag)
		return p.defaultLang
	}
	return tag
}

// SetLanguage overwrites the stored tag for userID. Callers restrict tag to
// the supported set.
func (p *PreferenceStore) SetLanguage(ctx context.Context, userID int64, tag string) error {
	_, err := mutate(ctx, p.rec, languageKey(userID), func(cur *string) error {
		*cur = tag
		return nil
	})
	if err != nil {
		return fmt.Errorf("set language for user %d: %w", userID, err)
	}
	return nil
}
