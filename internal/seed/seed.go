package seed

import (
	"fmt"
	"log/slog"
	"time"

	"socialnet/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "SeedPassword123"

// Options size the generated social graph.
type Options struct {
	NumUsers         int
	NumPosts         int
	FollowsPerUser   int
	LikesPerPost     int
	CommentsPerPost  int
	MessagesPerUser  int
	RepostPercent    int
	ShouldClean      bool
	DryRun           bool
	Seed             int64
	BcryptCost       int
	WithNotification bool
}

// DefaultOptions is a small but fully connected demo graph.
func DefaultOptions() Options {
	return Options{
		NumUsers:         50,
		NumPosts:         200,
		FollowsPerUser:   8,
		LikesPerPost:     5,
		CommentsPerPost:  2,
		MessagesPerUser:  3,
		RepostPercent:    10,
		ShouldClean:      true,
		BcryptCost:       bcrypt.DefaultCost,
		WithNotification: true,
	}
}

// Summary counts what a run inserted.
type Summary struct {
	Users         int
	Follows       int
	Posts         int
	Likes         int
	Comments      int
	Messages      int
	Notifications int
}

// Seeder populates the database through a Factory.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder hashes DefaultPassword once and prepares a factory.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	return &Seeder{
		db:   db,
		opts: opts,
		factory: NewFactory(db, FactoryOptions{
			PasswordHash: string(hash),
			Seed:         opts.Seed,
			DryRun:       opts.DryRun,
		}),
	}, nil
}

// ClearAll deletes every row of the social graph, dependents first.
func (s *Seeder) ClearAll() error {
	if s.opts.DryRun {
		return nil
	}
	slog.Info("clearing existing data")
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&models.Notification{},
			&models.DirectMessage{},
			&models.Comment{},
			&models.Like{},
			&models.Post{},
			&models.Follow{},
			&models.Profile{},
			&models.User{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// Run clears (when asked) and then generates users, follows, posts,
// engagement and messages.
func (s *Seeder) Run() (*Summary, error) {
	start := time.Now()
	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return nil, err
		}
	}

	sum := &Summary{}
	users, err := s.seedUsers(sum)
	if err != nil {
		return nil, err
	}
	if len(users) < 2 {
		return sum, nil
	}
	if err := s.seedFollows(users, sum); err != nil {
		return nil, err
	}
	posts, err := s.seedPosts(users, sum)
	if err != nil {
		return nil, err
	}
	if err := s.seedEngagement(users, posts, sum); err != nil {
		return nil, err
	}
	if err := s.seedMessages(users, posts, sum); err != nil {
		return nil, err
	}

	slog.Info("seeding complete",
		"users", sum.Users,
		"follows", sum.Follows,
		"posts", sum.Posts,
		"likes", sum.Likes,
		"comments", sum.Comments,
		"messages", sum.Messages,
		"notifications", sum.Notifications,
		"elapsed", time.Since(start))
	return sum, nil
}

func (s *Seeder) notify(sum *Summary, target uint, sender *models.User, kind models.NotificationKind, msg string, postID *uint, at time.Time) error {
	if !s.opts.WithNotification || target == sender.ID {
		return nil
	}
	if err := s.factory.CreateNotification(target, sender, kind, msg, postID, at); err != nil {
		return err
	}
	sum.Notifications++
	return nil
}

func (s *Seeder) seedUsers(sum *Summary) ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	return users, nil
}

// pick returns up to n distinct users other than self.
func (s *Seeder) pick(users []*models.User, self uint, n int) []*models.User {
	if n > len(users)-1 {
		n = len(users) - 1
	}
	out := make([]*models.User, 0, n)
	seen := map[uint]bool{self: true}
	for len(out) < n {
		u := users[s.factory.Intn(len(users))]
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		out = append(out, u)
	}
	return out
}

func (s *Seeder) seedFollows(users []*models.User, sum *Summary) error {
	for _, follower := range users {
		for _, target := range s.pick(users, follower.ID, s.opts.FollowsPerUser) {
			f, err := s.factory.CreateFollow(follower, target)
			if err != nil {
				return err
			}
			sum.Follows++
			if err := s.notify(sum, target.ID, follower, models.NotificationKindFollow,
				fmt.Sprintf("%s started following you.", follower.Username), nil, f.CreatedAt); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedPosts(users []*models.User, sum *Summary) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, s.opts.NumPosts)
	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[s.factory.Intn(len(users))]
		var (
			p   *models.Post
			err error
		)
		if len(posts) > 0 && s.factory.Intn(100) < s.opts.RepostPercent {
			p, err = s.factory.CreateRepost(author, posts[s.factory.Intn(len(posts))])
		} else {
			p, err = s.factory.CreatePost(author)
		}
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	sum.Posts = len(posts)
	return posts, nil
}

func (s *Seeder) seedEngagement(users []*models.User, posts []*models.Post, sum *Summary) error {
	byID := make(map[uint]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, post := range posts {
		postID := post.ID
		for _, liker := range s.pick(users, 0, s.factory.Intn(s.opts.LikesPerPost+1)) {
			like, err := s.factory.CreateLike(liker, post)
			if err != nil {
				return err
			}
			sum.Likes++
			if err := s.notify(sum, post.AuthorID, liker, models.NotificationKindLike,
				fmt.Sprintf("%s liked your post.", liker.Username), &postID, like.CreatedAt); err != nil {
				return err
			}
		}
		for i := 0; i < s.factory.Intn(s.opts.CommentsPerPost+1); i++ {
			commenter := users[s.factory.Intn(len(users))]
			c, err := s.factory.CreateComment(commenter, post)
			if err != nil {
				return err
			}
			sum.Comments++
			if err := s.notify(sum, post.AuthorID, commenter, models.NotificationKindComment,
				fmt.Sprintf("%s commented on your post: %s", commenter.Username, c.Content), &postID, c.CreatedAt); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedMessages(users []*models.User, posts []*models.Post, sum *Summary) error {
	for _, sender := range users {
		for _, recipient := range s.pick(users, sender.ID, s.opts.MessagesPerUser) {
			var shared *models.Post
			if len(posts) > 0 && s.factory.Intn(4) == 0 {
				shared = posts[s.factory.Intn(len(posts))]
			}
			msg, err := s.factory.CreateMessage(sender, recipient, shared)
			if err != nil {
				return err
			}
			sum.Messages++
			if err := s.notify(sum, recipient.ID, sender, models.NotificationKindDirectMessage,
				fmt.Sprintf("New message from %s", sender.Username), msg.PostID, msg.CreatedAt); err != nil {
				return err
			}
		}
	}
	return nil
}
