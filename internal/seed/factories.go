// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"socialnet/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

var nonUsernameChars = regexp.MustCompile(`[^a-z0-9]+`)

// FactoryOptions tune how rows are generated.
type FactoryOptions struct {
	// PasswordHash is stored on every generated user.
	PasswordHash string
	// MaxDays spreads CreatedAt values over this many days before Now.
	MaxDays int
	// Seed makes generated content reproducible when non-zero.
	Seed int64
	// DryRun assigns synthetic IDs and logs instead of writing.
	DryRun bool
	// Now anchors generated timestamps.
	Now time.Time
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db     *gorm.DB
	opts   FactoryOptions
	faker  *gofakeit.Faker
	rng    *rand.Rand
	seq    int
	nextID uint
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts FactoryOptions) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		rng:    rand.New(rand.NewSource(seed)), // #nosec G404: acceptable for seeding
		nextID: 1000,
	}
}

// Intn exposes the factory's random source so callers share one sequence.
func (f *Factory) Intn(n int) int {
	return f.rng.Intn(n)
}

// RecentTime returns a timestamp somewhere in the last MaxDays.
func (f *Factory) RecentTime() time.Time {
	back := time.Duration(f.rng.Int63n(int64(f.opts.MaxDays) * int64(24*time.Hour)))
	return f.opts.Now.Add(-back)
}

func (f *Factory) persist(label string, row any, assignID func(uint)) error {
	if f.opts.DryRun {
		f.nextID++
		assignID(f.nextID)
		slog.Debug("seed dry-run", "kind", label, "row", fmt.Sprintf("%+v", row))
		return nil
	}
	return f.db.Create(row).Error
}

// username derives a valid, unique handle from a fake name.
func (f *Factory) username() string {
	f.seq++
	base := nonUsernameChars.ReplaceAllString(strings.ToLower(f.faker.FirstName()+f.faker.LastName()), "")
	if len(base) > 20 {
		base = base[:20]
	}
	if len(base) < 3 {
		base = "user"
	}
	return fmt.Sprintf("%s%d", base, f.seq)
}

// CreateUser persists a user and its profile. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	username := f.username()
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  f.opts.PasswordHash,
		CreatedAt: f.RecentTime(),
		Profile: &models.Profile{
			Bio:    f.faker.Sentence(10),
			Avatar: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		},
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.persist("user", user, func(id uint) { user.ID = id }); err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreatePost persists a post by author. Roughly a third carry a media reference.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		AuthorID:  author.ID,
		Content:   f.faker.Paragraph(1, f.rng.Intn(3)+1, 12, " "),
		CreatedAt: f.RecentTime(),
	}
	if f.rng.Intn(3) == 0 {
		post.MediaRef = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}
	post.UpdatedAt = post.CreatedAt
	for _, override := range overrides {
		override(post)
	}
	if err := f.persist("post", post, func(id uint) { post.ID = id }); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateRepost shares original as author, with an optional comment.
func (f *Factory) CreateRepost(author *models.User, original *models.Post) (*models.Post, error) {
	sharedID := original.ID
	return f.CreatePost(author, func(p *models.Post) {
		p.SharedPostID = &sharedID
		p.MediaRef = ""
		p.Content = f.faker.HackerPhrase()
		if p.CreatedAt.Before(original.CreatedAt) {
			p.CreatedAt = original.CreatedAt.Add(time.Minute)
			p.UpdatedAt = p.CreatedAt
		}
	})
}

// CreateComment persists a comment by user on post.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	at := post.CreatedAt.Add(time.Duration(f.rng.Intn(72*60)) * time.Minute)
	comment := &models.Comment{
		UserID:    user.ID,
		PostID:    post.ID,
		Content:   f.faker.Sentence(8),
		CreatedAt: at,
		UpdatedAt: at,
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.persist("comment", comment, func(id uint) { comment.ID = id }); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// CreateLike persists a like from user on post.
func (f *Factory) CreateLike(user *models.User, post *models.Post) (*models.Like, error) {
	like := &models.Like{
		UserID:    user.ID,
		PostID:    post.ID,
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rng.Intn(48*60)) * time.Minute),
	}
	if err := f.persist("like", like, func(id uint) { like.ID = id }); err != nil {
		return nil, fmt.Errorf("create like: %w", err)
	}
	return like, nil
}

// CreateFollow persists follower -> following.
func (f *Factory) CreateFollow(follower, following *models.User) (*models.Follow, error) {
	follow := &models.Follow{
		FollowerID:  follower.ID,
		FollowingID: following.ID,
		CreatedAt:   f.RecentTime(),
	}
	if err := f.persist("follow", follow, func(id uint) { follow.ID = id }); err != nil {
		return nil, fmt.Errorf("create follow: %w", err)
	}
	return follow, nil
}

// CreateMessage persists a direct message, optionally sharing post.
func (f *Factory) CreateMessage(sender, recipient *models.User, post *models.Post) (*models.DirectMessage, error) {
	msg := &models.DirectMessage{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Content:     f.faker.Sentence(6),
		IsRead:      f.rng.Intn(2) == 0,
		CreatedAt:   f.RecentTime(),
	}
	if post != nil {
		id := post.ID
		msg.PostID = &id
	}
	if err := f.persist("message", msg, func(id uint) { msg.ID = id }); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// CreateNotification records what the service layer would have produced for
// an event seeded directly. Self-targeted events produce nothing.
func (f *Factory) CreateNotification(target uint, sender *models.User, kind models.NotificationKind, message string, postID *uint, at time.Time) error {
	if target == sender.ID {
		return nil
	}
	n := &models.Notification{
		UserID:    target,
		SenderID:  sender.ID,
		PostID:    postID,
		Kind:      kind,
		Message:   message,
		IsRead:    f.rng.Intn(3) == 0,
		CreatedAt: at,
	}
	if err := f.persist("notification", n, func(id uint) { n.ID = id }); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}
