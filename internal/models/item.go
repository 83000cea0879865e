package models

import (
	"time"

	"github.com/lib/pq"
)

// ItemType distinguishes the two sides of the matching pool.
type ItemType string

const (
	ItemTypeLost  ItemType = "LOST"
	ItemTypeFound ItemType = "FOUND"
)

// Opposite returns the pool an item is matched against.
func (t ItemType) Opposite() ItemType {
	if t == ItemTypeLost {
		return ItemTypeFound
	}
	return ItemTypeLost
}

// ItemStatus captures the report lifecycle.
type ItemStatus string

const (
	ItemStatusOpen     ItemStatus = "OPEN"
	ItemStatusResolved ItemStatus = "RESOLVED"
	ItemStatusExpired  ItemStatus = "EXPIRED"
)

// Item represents a lost or found report stored in the items table.
// Keywords and NormalizedLocation are derived fields filled in by the
// enrichment step of a matching pass; they are empty on a freshly
// inserted row.
type Item struct {
	ID                 string         `db:"id" json:"id"`
	Type               ItemType       `db:"type" json:"type"`
	OwnerID            string         `db:"owner_id" json:"owner_id"`
	Title              string         `db:"title" json:"title"`
	Description        string         `db:"description" json:"description"`
	Category           string         `db:"category" json:"category"`
	Location           string         `db:"location" json:"location"`
	NormalizedLocation string         `db:"normalized_location" json:"-"`
	Keywords           pq.StringArray `db:"keywords" json:"keywords,omitempty"`
	Status             ItemStatus     `db:"status" json:"status"`
	ExpiresAt          time.Time      `db:"expires_at" json:"expires_at"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// SearchText is the free text a matching pass extracts keywords from.
func (i *Item) SearchText() string {
	return i.Title + " " + i.Description
}

// Expired reports whether the item has passed its expiry timestamp.
func (i *Item) Expired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

// ItemFilter captures filtering criteria for listing items.
type ItemFilter struct {
	Type      *ItemType
	Status    *ItemStatus
	Category  string
	OwnerID   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
