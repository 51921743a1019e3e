package state

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/edgard/rojitobot/internal/kv"
	"github.com/edgard/rojitobot/internal/metrics"
)

// Kind is the registry partition a destination belongs to.
type Kind string

const (
	KindDirect Kind = "private"
	KindGroup  Kind = "group"
)

// Destination is a chat that has recently talked to the bot.
type Destination struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"type"`
	Title        string    `json:"title,omitempty"`
	Username     string    `json:"username,omitempty"`
	LastActivity time.Time `json:"lastActivity"`
}

// directory is the single stored document listing every destination.
type directory struct {
	Private map[string]Destination `json:"private"`
	Groups  map[string]Destination `json:"groups"`
}

func (d *directory) partition(kind Kind) (map[string]Destination, error) {
	if d.Private == nil {
		d.Private = make(map[string]Destination)
	}
	if d.Groups == nil {
		d.Groups = make(map[string]Destination)
	}
	switch kind {
	case KindDirect:
		return d.Private, nil
	case KindGroup:
		return d.Groups, nil
	default:
		return nil, fmt.Errorf("unknown destination kind %q", kind)
	}
}

// Registry is the directory of active chats, partitioned into direct and
// group destinations.
type Registry struct {
	rec *record
}

// NewRegistry creates a Registry on top of store.
func NewRegistry(store kv.Store, log *slog.Logger, opts ...Option) *Registry {
	return &Registry{rec: newRecord(store, log, "destination_registry", opts)}
}

// Touch records activity for dest, creating the entry when needed. The stored
// activity time never moves backwards and an empty title or username keeps
// the stored one.
func (r *Registry) Touch(ctx context.Context, dest Destination) error {
	if dest.ID == "" {
		return fmt.Errorf("touch destination: empty id")
	}
	now := r.rec.now().UTC()

	dir, err := mutate(ctx, r.rec, activeChatsKey, func(d *directory) error {
		part, err := d.partition(dest.Kind)
		if err != nil {
			return err
		}
		entry := dest
		entry.LastActivity = now
		if prev, ok := part[dest.ID]; ok {
			if prev.LastActivity.After(now) {
				entry.LastActivity = prev.LastActivity
			}
			if entry.Title == "" {
				entry.Title = prev.Title
			}
			if entry.Username == "" {
				entry.Username = prev.Username
			}
		}
		part[dest.ID] = entry
		return nil
	})
	if err != nil {
		return fmt.Errorf("touch %s destination %s: %w", dest.Kind, dest.ID, err)
	}

	reportSizes(&dir)
	return nil
}

// List returns the destinations of kind ordered by id.
func (r *Registry) List(ctx context.Context, kind Kind) []Destination {
	dir := read[directory](ctx, r.rec, activeChatsKey)
	part, err := dir.partition(kind)
	if err != nil {
		r.rec.log.ErrorContext(ctx, "Listing unknown destination kind", "kind", kind)
		return nil
	}

	out := make([]Destination, 0, len(part))
	for _, d := range part {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Prune removes every destination idle for longer than ttl and returns how
// many were removed. A ttl of zero or less disables eviction.
func (r *Registry) Prune(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := r.rec.now().UTC().Add(-ttl)

	var removed int
	dir, err := mutate(ctx, r.rec, activeChatsKey, func(d *directory) error {
		removed = 0
		for _, kind := range []Kind{KindDirect, KindGroup} {
			part, _ := d.partition(kind)
			for id, dest := range part {
				if dest.LastActivity.Before(cutoff) {
					delete(part, id)
					removed++
				}
			}
		}
		if removed == 0 {
			return errSkipWrite
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune destinations: %w", err)
	}

	reportSizes(&dir)
	return removed, nil
}

func reportSizes(d *directory) {
	metrics.ActiveDestinations.WithLabelValues(string(KindDirect)).Set(float64(len(d.Private)))
	metrics.ActiveDestinations.WithLabelValues(string(KindGroup)).Set(float64(len(d.Groups)))
}
