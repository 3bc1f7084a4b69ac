package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// TagList is a set of tags stored as a JSON array column. Values are
// de-duplicated on assignment; order of first occurrence is preserved.
type TagList []string

// Value implements driver.Valuer for GORM.
func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for GORM.
func (t *TagList) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for TagList")
	}

	return json.Unmarshal(raw, (*[]string)(t))
}

// Dedupe returns the tag list with duplicate values removed, keeping the
// first occurrence of each tag.
func (t TagList) Dedupe() TagList {
	if len(t) == 0 {
		return t
	}

	seen := make(map[string]struct{}, len(t))
	out := make(TagList, 0, len(t))
	for _, tag := range t {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Memory is the compiled narrative artifact derived from one chat session's
// transcript. Created exactly once per compile; mutated only by share-link
// assignment.
type Memory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Title     string    `json:"title" gorm:"not null"`
	Content   string    `json:"content" gorm:"type:text"`
	Summary   string    `json:"summary" gorm:"type:text"`
	Tags      TagList   `json:"tags" gorm:"type:text"`
	ShareLink string    `json:"share_link,omitempty" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the original collection name.
func (Memory) TableName() string {
	return "memories"
}
