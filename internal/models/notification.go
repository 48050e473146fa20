package models

import "time"

// NotificationKind identifies the event that produced a notification.
type NotificationKind string

const (
	NotificationKindLike          NotificationKind = "like"
	NotificationKindComment       NotificationKind = "comment"
	NotificationKindDirectMessage NotificationKind = "direct_message"
	NotificationKindFollow        NotificationKind = "follow"
)

// Valid reports whether k is one of the known kinds.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationKindLike, NotificationKindComment, NotificationKindDirectMessage, NotificationKindFollow:
		return true
	}
	return false
}

// Notification is created only as a side effect of another write. Apart from
// IsRead it is never modified.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	SenderID  uint             `gorm:"not null;index" json:"sender_id"`
	Sender    *User            `gorm:"foreignKey:SenderID" json:"-"`
	PostID    *uint            `gorm:"index" json:"post_id,omitempty"`
	Kind      NotificationKind `gorm:"type:varchar(20);not null" json:"kind"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	IsRead    bool             `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time        `gorm:"index:idx_notifications_user_created,priority:2" json:"created_at"`
}
