package alert

import (
	"slices"
	"sync"

	"crypto-alerts-bot/internal/types"

	"github.com/samber/lo"
)

// Registry holds the active alerts of every owner, in insertion order.
// An owner key is present only while its list is non-empty.
type Registry struct {
	mu     sync.Mutex
	alerts map[int64][]types.Alert
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{alerts: make(map[int64][]types.Alert)}
}

// Add appends a to the owner's alerts
func (r *Registry) Add(owner int64, a types.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alerts[owner] = append(r.alerts[owner], a)
}

// List returns a copy of the owner's alerts
func (r *Registry) List(owner int64) []types.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.alerts[owner])
}

// Contains reports whether the owner already has an alert equal to a
func (r *Registry) Contains(owner int64, a types.Alert) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.ContainsFunc(r.alerts[owner], a.Equal)
}

// Has reports whether the owner has any alert
func (r *Registry) Has(owner int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.alerts[owner]
	return ok
}

// Remove deletes the first alert equal to a and returns it
func (r *Registry) Remove(owner int64, a types.Alert) (types.Alert, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.alerts[owner]
	i := slices.IndexFunc(list, a.Equal)
	if i < 0 {
		return types.Alert{}, false
	}

	removed := list[i]
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(r.alerts, owner)
	} else {
		r.alerts[owner] = list
	}
	return removed, true
}

// RemoveAll drops every alert of the owner. It returns false if there was none.
func (r *Registry) RemoveAll(owner int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.alerts[owner]; !ok {
		return false
	}
	delete(r.alerts, owner)
	return true
}

// Owners lists the ids of owners with at least one alert, ascending
func (r *Registry) Owners() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	owners := lo.Keys(r.alerts)
	slices.Sort(owners)
	return owners
}

// Len counts alerts across all owners
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.SumBy(lo.Values(r.alerts), func(list []types.Alert) int { return len(list) })
}
