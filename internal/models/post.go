package models

import "time"

// Post is a piece of authored content. SharedPostID turns it into a repost;
// chains of reposts may be arbitrarily deep.
type Post struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AuthorID     uint      `gorm:"not null;index:idx_posts_author_created,priority:1" json:"author_id"`
	Author       *User     `gorm:"foreignKey:AuthorID" json:"-"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	MediaRef     string    `gorm:"size:512" json:"media_ref,omitempty"`
	SharedPostID *uint     `gorm:"index" json:"shared_post_id,omitempty"`
	SharedPost   *Post     `gorm:"foreignKey:SharedPostID" json:"-"`
	CreatedAt    time.Time `gorm:"index:idx_posts_author_created,priority:2;index:idx_posts_created" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	// Liked reports whether the requesting user liked this post (computed)
	Liked bool `gorm:"->;-:migration" json:"liked"`
}

// Like records that a user liked a post. One per (user, post).
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post,priority:1" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post,priority:2;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a reply on a post, editable by its author.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	PostID    uint      `gorm:"not null;index:idx_comments_post_created,priority:1" json:"post_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_comments_post_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
