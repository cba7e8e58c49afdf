// internal/notifications/resources/aggregator.go
package resources

import (
	"context"
	"sort"
)

// Needs declares which entities an event requires for email rendering.
// Zero value is usable.
type Needs struct {
	Users     map[int64]struct{}
	Tracks    map[int64]struct{}
	Playlists map[int64]struct{}
}

func NewNeeds() Needs {
	return Needs{
		Users:     map[int64]struct{}{},
		Tracks:    map[int64]struct{}{},
		Playlists: map[int64]struct{}{},
	}
}

func (n *Needs) AddUser(ids ...int64) {
	if n.Users == nil {
		n.Users = map[int64]struct{}{}
	}
	for _, id := range ids {
		if id > 0 {
			n.Users[id] = struct{}{}
		}
	}
}

func (n *Needs) AddTrack(ids ...int64) {
	if n.Tracks == nil {
		n.Tracks = map[int64]struct{}{}
	}
	for _, id := range ids {
		if id > 0 {
			n.Tracks[id] = struct{}{}
		}
	}
}

func (n *Needs) AddPlaylist(ids ...int64) {
	if n.Playlists == nil {
		n.Playlists = map[int64]struct{}{}
	}
	for _, id := range ids {
		if id > 0 {
			n.Playlists[id] = struct{}{}
		}
	}
}

// Merge folds other into n.
func (n *Needs) Merge(other Needs) {
	for id := range other.Users {
		n.AddUser(id)
	}
	for id := range other.Tracks {
		n.AddTrack(id)
	}
	for id := range other.Playlists {
		n.AddPlaylist(id)
	}
}

func (n Needs) userIDs() []int64     { return sortedKeys(n.Users) }
func (n Needs) trackIDs() []int64    { return sortedKeys(n.Tracks) }
func (n Needs) playlistIDs() []int64 { return sortedKeys(n.Playlists) }

func sortedKeys(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NeedsProvider is implemented by every event variant.
type NeedsProvider interface {
	ResourcesForEmail() Needs
}

// Aggregator turns O(events) entity lookups into O(distinct entities): it
// unions the declared needs of many same-kind events and resolves them with
// one bulk call per entity kind. Broadcast kinds would otherwise re-fetch
// identical rows per recipient.
type Aggregator struct {
	store *Store
}

func NewAggregator(store *Store) *Aggregator {
	return &Aggregator{store: store}
}

// Resolve unions the needs of the given providers and resolves them once.
func (a *Aggregator) Resolve(ctx context.Context, providers ...NeedsProvider) (*Resolved, error) {
	needs := NewNeeds()
	for _, p := range providers {
		needs.Merge(p.ResourcesForEmail())
	}
	return a.store.Resolve(ctx, needs)
}
