package models

import "time"

// DirectMessage is a private message between two users, optionally sharing a post.
type DirectMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderID    uint      `gorm:"not null;index:idx_dm_sender_created,priority:1" json:"sender_id"`
	Sender      *User     `gorm:"foreignKey:SenderID" json:"-"`
	RecipientID uint      `gorm:"not null;index:idx_dm_recipient_created,priority:1" json:"recipient_id"`
	Recipient   *User     `gorm:"foreignKey:RecipientID" json:"-"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	PostID      *uint     `gorm:"index" json:"post_id,omitempty"`
	IsRead      bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time `gorm:"index:idx_dm_sender_created,priority:2;index:idx_dm_recipient_created,priority:2" json:"created_at"`
}

// TableName specifies the table name for GORM
func (DirectMessage) TableName() string {
	return "direct_messages"
}
