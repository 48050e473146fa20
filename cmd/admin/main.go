// Package main provides account and data maintenance commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"socialnet/internal/cache"
	"socialnet/internal/config"
	"socialnet/internal/database"
	"socialnet/internal/models"
	"socialnet/internal/repository"
	"socialnet/internal/service"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  admin stats                           - Row counts per table")
		fmt.Println("  admin delete-user <username>          - Delete an account and everything it owns")
		fmt.Println("  admin prune-notifications <days>      - Delete read notifications older than <days>")
		fmt.Println("  admin following <username>            - List every account <username> follows")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()
	cache.InitRedis(cfg.RedisURL)
	defer func() { _ = cache.Close() }()

	ctx := context.Background()
	switch os.Args[1] {
	case "stats":
		err = printStats(ctx, db)
	case "delete-user":
		if len(os.Args) < 3 {
			log.Fatal("Usage: admin delete-user <username>")
		}
		err = deleteUser(ctx, db, os.Args[2], cfg.AccessTokenTTL())
	case "prune-notifications":
		if len(os.Args) < 3 {
			log.Fatal("Usage: admin prune-notifications <days>")
		}
		err = pruneNotifications(ctx, db, os.Args[2])
	case "following":
		if len(os.Args) < 3 {
			log.Fatal("Usage: admin following <username>")
		}
		err = listFollowing(ctx, db, os.Args[2])
	default:
		err = fmt.Errorf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatal(err)
	}
}

func printStats(ctx context.Context, db *gorm.DB) error {
	for _, model := range database.PersistentModels() {
		var n int64
		if err := db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			return fmt.Errorf("count %T: %w", model, err)
		}
		fmt.Printf("%-28T %d\n", model, n)
	}
	return nil
}

func deleteUser(ctx context.Context, db *gorm.DB, username string, sessionTTL time.Duration) error {
	users := repository.NewUserRepository(db)
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}
	svc := service.NewUserService(users, repository.NewFollowRepository(db))
	if err := svc.DeleteAccount(ctx, user.ID); err != nil {
		return fmt.Errorf("delete %s: %w", username, err)
	}
	if err := cache.RevokeUserSessions(ctx, user.ID, sessionTTL); err != nil {
		fmt.Printf("Warning: sessions of %s not revoked: %v\n", user.Username, err)
	}
	fmt.Printf("Deleted user %s (ID: %d)\n", user.Username, user.ID)
	return nil
}

func pruneNotifications(ctx context.Context, db *gorm.DB, daysArg string) error {
	days, err := strconv.Atoi(daysArg)
	if err != nil {
		return fmt.Errorf("invalid day count %q", daysArg)
	}
	svc := service.NewNotificationService(repository.NewNotificationRepository(db), nil, nil)
	n, err := svc.PruneRead(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return errors.New(appErr.Message)
		}
		return err
	}
	fmt.Printf("Deleted %d read notifications\n", n)
	return nil
}

func listFollowing(ctx context.Context, db *gorm.DB, username string) error {
	users := repository.NewUserRepository(db)
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}

	svc := service.NewRelationshipService(repository.NewFollowRepository(db), users, nil)
	total := 0
	err = svc.ForEachFollowed(ctx, user.ID, 500, func(ids []uint) error {
		var names []string
		if err := db.WithContext(ctx).Model(&models.User{}).
			Where("id IN ?", ids).Order("id").Pluck("username", &names).Error; err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		total += len(names)
		return nil
	})
	if err != nil {
		return fmt.Errorf("list following for %s: %w", username, err)
	}
	fmt.Printf("%s follows %d accounts\n", user.Username, total)
	return nil
}
