package push

import "time"

// FavoriteEvent is broadcast to subscribed watchers whenever a user's
// favorite set changes on the server.
type FavoriteEvent struct {
	Type   string    `json:"type"` // "favorite.added" or "favorite.removed"
	UserID string    `json:"user_id"`
	Codigo string    `json:"codigo"`
	At     time.Time `json:"at"`
}
