package models

import "time"

// NotificationType enumerates the events a user can be notified about.
type NotificationType string

const (
	NotificationTypeMatchFound NotificationType = "MATCH_FOUND"
)

// Notification is a per-user message persisted in the notifications
// table. Matching passes create one for each owner involved in a new
// match, carrying the score and breakdown so the feed can render the
// match without a join.
type Notification struct {
	ID           string           `db:"id" json:"id"`
	UserID       string           `db:"user_id" json:"user_id"`
	Type         NotificationType `db:"type" json:"type"`
	Title        string           `db:"title" json:"title"`
	Message      string           `db:"message" json:"message"`
	LostItemID   string           `db:"lost_item_id" json:"lost_item_id"`
	FoundItemID  string           `db:"found_item_id" json:"found_item_id"`
	MatchID      string           `db:"match_id" json:"match_id"`
	MatchScore   int              `db:"match_score" json:"match_score"`
	MatchDetails MatchBreakdown   `db:"match_details" json:"match_details"`
	Read         bool             `db:"read" json:"read"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}

// NotificationFilter captures filtering criteria for listing
// notifications.
type NotificationFilter struct {
	UserID   string
	Unread   *bool
	Page     int
	PageSize int
}
