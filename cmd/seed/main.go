// Command main fills the database with a generated social graph.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"socialnet/internal/bootstrap"
	"socialnet/internal/config"
	"socialnet/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.NumUsers, "users", opts.NumUsers, "number of users to create")
	flag.IntVar(&opts.NumPosts, "posts", opts.NumPosts, "number of posts to create")
	flag.IntVar(&opts.FollowsPerUser, "follows", opts.FollowsPerUser, "accounts each user follows")
	flag.IntVar(&opts.LikesPerPost, "likes", opts.LikesPerPost, "maximum likes per post")
	flag.IntVar(&opts.CommentsPerPost, "comments", opts.CommentsPerPost, "maximum comments per post")
	flag.IntVar(&opts.MessagesPerUser, "messages", opts.MessagesPerUser, "direct messages sent by each user")
	flag.IntVar(&opts.RepostPercent, "reposts", opts.RepostPercent, "percentage of posts that share another post")
	flag.BoolVar(&opts.ShouldClean, "clean", opts.ShouldClean, "delete existing data first")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "generate without writing")
	flag.BoolVar(&opts.WithNotification, "notifications", opts.WithNotification, "create matching notifications")
	flag.Int64Var(&opts.Seed, "seed", 0, "random seed for reproducible data (0 = time based)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to seed a production database")
	}

	rt, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	s, err := seed.NewSeeder(rt.DB, opts)
	if err != nil {
		log.Fatalf("Failed to create seeder: %v", err)
	}
	sum, err := s.Run()
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	slog.Info("database populated", "users", sum.Users, "posts", sum.Posts, "password", seed.DefaultPassword)
}
