package model

import "time"

// Favorite links a user to a song. The auto-increment id gives the insertion
// order used when listing a user's favorites.
type Favorite struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"userId" gorm:"size:36;not null;uniqueIndex:idx_favorites_user_song"`
	SongID    string    `json:"songId" gorm:"size:36;not null;uniqueIndex:idx_favorites_user_song;index"`
	CreatedAt time.Time `json:"createdAt"`
}
