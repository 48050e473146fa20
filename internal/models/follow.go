package models

import "time"

// Follow is a directed edge: Follower receives Following's posts in their feed.
// The (follower, following) pair is unique; self-follows are rejected by the
// service layer rather than the schema.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follow_pair,priority:1;index:idx_follows_follower_created,priority:1" json:"follower_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follow_pair,priority:2;index:idx_follows_following_created,priority:1" json:"following_id"`
	CreatedAt   time.Time `gorm:"index:idx_follows_follower_created,priority:2;index:idx_follows_following_created,priority:2" json:"created_at"`

	Follower  *User `gorm:"foreignKey:FollowerID" json:"-"`
	Following *User `gorm:"foreignKey:FollowingID" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
