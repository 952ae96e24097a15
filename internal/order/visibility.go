// AngelaMos | 2026
// visibility.go

package order

import (
	"slices"
	"strings"
	"sync"
)

// VisibilitySet tracks which orders an admin has chosen to see unmasked.
// It never touches order data; toggling an id twice restores the original
// display.
type VisibilitySet struct {
	mu       sync.RWMutex
	revealed map[string]struct{}
}

func NewVisibilitySet(ids ...string) *VisibilitySet {
	v := &VisibilitySet{revealed: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			v.revealed[id] = struct{}{}
		}
	}
	return v
}

// ParseVisibility reads a comma separated reveal list.
func ParseVisibility(raw string) *VisibilitySet {
	if raw == "" {
		return NewVisibilitySet()
	}
	return NewVisibilitySet(strings.Split(raw, ",")...)
}

// Toggle flips id and reports whether it is now revealed.
func (v *VisibilitySet) Toggle(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.revealed[id]; ok {
		delete(v.revealed, id)
		return false
	}
	v.revealed[id] = struct{}{}
	return true
}

func (v *VisibilitySet) Revealed(id string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.revealed[id]
	return ok
}

func (v *VisibilitySet) IDs() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	ids := make([]string, 0, len(v.revealed))
	for id := range v.revealed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (v *VisibilitySet) String() string {
	return strings.Join(v.IDs(), ",")
}

// Display returns the email and phone as an admin should see them.
func (v *VisibilitySet) Display(o Order) (email, phone string) {
	if v.Revealed(o.ID) {
		return o.CustomerEmail, o.CustomerPhone
	}
	return MaskEmail(o.CustomerEmail), MaskPhone(o.CustomerPhone)
}
