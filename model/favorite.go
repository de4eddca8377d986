package model

import "time"

// Favorite is a backend-persisted favorite mark, keyed (user_id, nasheed_id).
type Favorite struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    int64     `json:"user_id" gorm:"uniqueIndex:idx_user_nasheed;not null"`
	NasheedID string    `json:"nasheed_id" gorm:"uniqueIndex:idx_user_nasheed;size:512;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the table name aligned with the sql-side schema.
func (Favorite) TableName() string {
	return "favorites"
}
