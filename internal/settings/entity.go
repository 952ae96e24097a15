// AngelaMos | 2026
// entity.go

package settings

import (
	"time"
)

type Setting struct {
	ID        string    `db:"id"            json:"id"`
	Key       string    `db:"setting_key"   json:"setting_key"`
	Value     string    `db:"setting_value" json:"setting_value"`
	UpdatedAt time.Time `db:"updated_at"    json:"updated_at"`
}

// QuickLink is a footer entry. Text-only entries have no URL.
type QuickLink struct {
	ID           string    `db:"id"            json:"id"`
	Title        string    `db:"title"         json:"title"`
	URL          string    `db:"url"           json:"url"`
	QuickText    string    `db:"quick_text"    json:"quick_text"`
	IsTextOnly   bool      `db:"is_text_only"  json:"is_text_only"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}

func (q QuickLink) RowID() string { return q.ID }

func (q QuickLink) Complete() bool {
	return q.Title != "" && (q.URL != "" || q.IsTextOnly)
}

type StatBox struct {
	ID           string    `db:"id"            json:"id"`
	Icon         string    `db:"icon"          json:"icon"`
	Label        string    `db:"label"         json:"label"`
	Value        string    `db:"value"         json:"value"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}

func (s StatBox) RowID() string { return s.ID }

func (s StatBox) Complete() bool {
	return s.Label != "" && s.Value != ""
}
