// AngelaMos | 2026
// reconcile.go

package settings

import "fmt"

type row interface {
	RowID() string
	Complete() bool
}

// Dropped is an incoming row that was not saved because it was incomplete.
type Dropped struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// Plan is the set of writes that makes the stored collection match the
// complete subset of an incoming one.
type Plan[T row] struct {
	Insert  []T
	Update  []T
	Delete  []string
	Dropped []Dropped
}

func (p Plan[T]) Empty() bool {
	return len(p.Insert) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Reconcile diffs incoming against the stored ids. Incomplete rows are
// dropped, and a stored row whose incoming copy was dropped is deleted, so
// the outcome always equals replacing the collection with its complete rows.
func Reconcile[T row](stored []string, incoming []T, reason string) Plan[T] {
	existing := make(map[string]bool, len(stored))
	for _, id := range stored {
		existing[id] = false
	}

	var plan Plan[T]
	for i, r := range incoming {
		id := r.RowID()
		if !r.Complete() {
			plan.Dropped = append(plan.Dropped, Dropped{Index: i, ID: id, Reason: reason})
			continue
		}

		seen, known := existing[id]
		switch {
		case known && !seen:
			existing[id] = true
			plan.Update = append(plan.Update, r)
		default:
			plan.Insert = append(plan.Insert, r)
		}
	}

	for _, id := range stored {
		if !existing[id] {
			plan.Delete = append(plan.Delete, id)
		}
	}
	return plan
}

func droppedReason(kind string) string {
	switch kind {
	case "quick_link":
		return "title and url are required unless the link is text only"
	case "stat_box":
		return "label and value are required"
	default:
		return fmt.Sprintf("incomplete %s", kind)
	}
}
