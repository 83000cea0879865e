package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MatchStatus annotates a match row. It is informational only; the
// dedup guarantee comes from the pair constraint, not from status
// transitions.
type MatchStatus string

const (
	MatchStatusNotified MatchStatus = "NOTIFIED"
)

// MatchRecord links one lost report to one found report. The pair is
// unique per direction-independent combination: the database enforces
// UNIQUE(lost_item_id, found_item_id) and every writer orders the pair
// as (lost, found) before inserting.
type MatchRecord struct {
	ID          string         `db:"id" json:"id"`
	LostItemID  string         `db:"lost_item_id" json:"lost_item_id"`
	FoundItemID string         `db:"found_item_id" json:"found_item_id"`
	Score       int            `db:"score" json:"score"`
	MatchedOn   MatchBreakdown `db:"matched_on" json:"matched_on"`
	Status      MatchStatus    `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// MatchBreakdown records which signals contributed to a score. It is
// persisted as JSONB alongside the match row.
type MatchBreakdown struct {
	CategoryMatched bool     `json:"category_matched"`
	LocationMatched bool     `json:"location_matched"`
	KeywordOverlap  int      `json:"keyword_overlap"`
	SharedKeywords  []string `json:"shared_keywords,omitempty"`
}

// Value marshals the breakdown to JSON for persistence.
func (b MatchBreakdown) Value() (driver.Value, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshal match breakdown: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the breakdown struct.
func (b *MatchBreakdown) Scan(value interface{}) error {
	if value == nil {
		*b = MatchBreakdown{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for MatchBreakdown", value)
	}
	if len(data) == 0 {
		*b = MatchBreakdown{}
		return nil
	}
	if err := json.Unmarshal(data, b); err != nil {
		return fmt.Errorf("unmarshal match breakdown: %w", err)
	}
	return nil
}
