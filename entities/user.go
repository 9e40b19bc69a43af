package entities

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Password  string    `gorm:"not null" json:"-"`
	AvatarURL string    `json:"avatar_url,omitempty"`

	Recipes []*Recipe `gorm:"foreignKey:AuthorID" json:"-"`
	Timestamp
}

// Follow is the subscription of UserID to the recipes of FollowingID.
type Follow struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID `gorm:"index:idx_follow_pair,unique;not null" json:"user_id"`
	FollowingID uuid.UUID `gorm:"index:idx_follow_pair,unique;not null;check:user_id <> following_id" json:"following_id"`
	CreatedAt   time.Time `gorm:"type:timestamp" json:"created_at"`

	User      *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Following *User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE"`
}
