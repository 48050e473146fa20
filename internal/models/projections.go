package models

import "time"

// UserSummary is the public identity embedded in other responses.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// SummaryOf builds a UserSummary; nil users yield nil.
func SummaryOf(u *User) *UserSummary {
	if u == nil {
		return nil
	}
	s := &UserSummary{ID: u.ID, Username: u.Username}
	if u.Profile != nil {
		s.Avatar = u.Profile.Avatar
	}
	return s
}

// ProfileView is the public profile of a user.
type ProfileView struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Bio            string    `json:"bio"`
	Avatar         string    `json:"avatar"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
	IsFollowing    bool      `json:"is_following"`
	CreatedAt      time.Time `json:"created_at"`
}

// MyProfileView adds the private fields shown only to the owner.
type MyProfileView struct {
	ProfileView
	Email string `json:"email"`
}

// PostView is the response shape of a post.
type PostView struct {
	ID            uint         `json:"id"`
	Author        *UserSummary `json:"author"`
	Content       string       `json:"content"`
	MediaRef      string       `json:"media_ref,omitempty"`
	SharedPostID  *uint        `json:"shared_post_id,omitempty"`
	SharedPost    *PostView    `json:"shared_post,omitempty"`
	LikesCount    int          `json:"likes_count"`
	CommentsCount int          `json:"comments_count"`
	Liked         bool         `json:"liked"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ViewOfPost converts a loaded post. Only one level of shared post is embedded.
func ViewOfPost(p *Post) *PostView {
	if p == nil {
		return nil
	}
	v := &PostView{
		ID:            p.ID,
		Author:        SummaryOf(p.Author),
		Content:       p.Content,
		MediaRef:      p.MediaRef,
		SharedPostID:  p.SharedPostID,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		Liked:         p.Liked,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.SharedPost != nil {
		shared := *p.SharedPost
		shared.SharedPost = nil
		v.SharedPost = ViewOfPost(&shared)
	}
	return v
}

// ViewsOfPosts converts a slice of posts.
func ViewsOfPosts(posts []*Post) []*PostView {
	out := make([]*PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, ViewOfPost(p))
	}
	return out
}

// CommentView is the response shape of a comment.
type CommentView struct {
	ID        uint         `json:"id"`
	PostID    uint         `json:"post_id"`
	User      *UserSummary `json:"user"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ViewOfComment converts a loaded comment.
func ViewOfComment(c *Comment) *CommentView {
	return &CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		User:      SummaryOf(c.User),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// InboxMessage is a received message. The recipient is always the viewer and is omitted.
type InboxMessage struct {
	ID        uint         `json:"id"`
	Sender    *UserSummary `json:"sender"`
	Content   string       `json:"content"`
	PostID    *uint        `json:"post_id,omitempty"`
	IsRead    bool         `json:"is_read"`
	CreatedAt time.Time    `json:"created_at"`
}

// SentMessage is a message sent by the viewer. The sender is omitted.
type SentMessage struct {
	ID        uint         `json:"id"`
	Recipient *UserSummary `json:"recipient"`
	Content   string       `json:"content"`
	PostID    *uint        `json:"post_id,omitempty"`
	IsRead    bool         `json:"is_read"`
	CreatedAt time.Time    `json:"created_at"`
}

// MessageDetail shows both participants.
type MessageDetail struct {
	ID        uint         `json:"id"`
	Sender    *UserSummary `json:"sender"`
	Recipient *UserSummary `json:"recipient"`
	Content   string       `json:"content"`
	PostID    *uint        `json:"post_id,omitempty"`
	IsRead    bool         `json:"is_read"`
	CreatedAt time.Time    `json:"created_at"`
}

func InboxMessageOf(m *DirectMessage) *InboxMessage {
	return &InboxMessage{
		ID:        m.ID,
		Sender:    SummaryOf(m.Sender),
		Content:   m.Content,
		PostID:    m.PostID,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

func SentMessageOf(m *DirectMessage) *SentMessage {
	return &SentMessage{
		ID:        m.ID,
		Recipient: SummaryOf(m.Recipient),
		Content:   m.Content,
		PostID:    m.PostID,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

func MessageDetailOf(m *DirectMessage) *MessageDetail {
	return &MessageDetail{
		ID:        m.ID,
		Sender:    SummaryOf(m.Sender),
		Recipient: SummaryOf(m.Recipient),
		Content:   m.Content,
		PostID:    m.PostID,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

// NotificationView is the response shape of a notification.
type NotificationView struct {
	ID        uint             `json:"id"`
	Sender    *UserSummary     `json:"sender"`
	PostID    *uint            `json:"post_id,omitempty"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

func ViewOfNotification(n *Notification) *NotificationView {
	return &NotificationView{
		ID:        n.ID,
		Sender:    SummaryOf(n.Sender),
		PostID:    n.PostID,
		Kind:      n.Kind,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// FollowView is one row of a followers or following listing.
type FollowView struct {
	User      *UserSummary `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

// Page is the offset-paginated response envelope.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// CursorPage is the keyset-paginated response envelope.
type CursorPage[T any] struct {
	Count      int     `json:"count"`
	NextCursor *string `json:"next_cursor"`
	Results    []T     `json:"results"`
}
