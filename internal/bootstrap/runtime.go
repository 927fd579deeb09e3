// Package bootstrap wires the process-wide dependencies shared by the
// server and the CLI tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"wanderlust/internal/auth"
	"wanderlust/internal/cache"
	"wanderlust/internal/config"
	"wanderlust/internal/database"
	"wanderlust/internal/middleware"
	"wanderlust/internal/models"
	"wanderlust/internal/seed"
	"wanderlust/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo creates the demo account and a handful of listings when the
	// database has none.
	SeedDemo bool
	// WithSessions connects the Mongo session store when MONGO_URI is set.
	WithSessions bool
}

// Runtime holds the live connections of one process.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Mongo *mongo.Client
	// SessionStorage is nil when sessions live in memory.
	SessionStorage fiber.Storage
}

// InitRuntime connects the database, Redis and optionally Mongo.
// Redis and Mongo are optional: failures are logged and the runtime degrades.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt := &Runtime{DB: db}

	if cfg.RedisURL != "" {
		rt.Redis = cache.InitRedis(ctx, cfg.RedisURL)
	}

	if opts.WithSessions && cfg.MongoURI != "" {
		client, err := session.Connect(ctx, cfg.MongoURI)
		if err != nil {
			middleware.Logger.Warn("Mongo unavailable, sessions fall back to memory", slog.String("error", err.Error()))
		} else {
			storage, err := session.NewMongoStorage(ctx, client.Database(mongoDatabase(cfg)))
			if err != nil {
				_ = client.Disconnect(ctx)
				middleware.Logger.Warn("Failed to prepare session collection", slog.String("error", err.Error()))
			} else {
				rt.Mongo = client
				rt.SessionStorage = storage
			}
		}
	}

	if err := ensureDevRootAdmin(cfg, db); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	if opts.SeedDemo {
		if err := seedIfEmpty(db); err != nil {
			rt.Close(ctx)
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return rt, nil
}

// Close releases every connection held by rt.
func (rt *Runtime) Close(ctx context.Context) {
	if rt == nil {
		return
	}
	if rt.Mongo != nil {
		if err := rt.Mongo.Disconnect(ctx); err != nil {
			middleware.Logger.Warn("Mongo disconnect failed", slog.String("error", err.Error()))
		}
	}
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func mongoDatabase(cfg *config.Config) string {
	if name := strings.TrimSpace(cfg.MongoDB); name != "" {
		return name
	}
	return "wanderlust"
}

func seedIfEmpty(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Listing{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := seed.Seed(db, seed.Options{NumUsers: 3, NumListings: 6, ReviewsPerListing: 2})
	return err
}

// ensureDevRootAdmin creates or promotes the configured development admin.
func ensureDevRootAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	name := strings.TrimSpace(cfg.DevRootName)
	if name == "" {
		name = "Wanderlust Admin"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "admin@wanderlust.local"
	}
	if cfg.DevRootPassword == "" {
		return errors.New("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}
	hash, err := auth.HashPassword(cfg.DevRootPassword)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("email = ?", email).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			root = models.User{
				Name:             name,
				Email:            email,
				Password:         hash,
				Role:             models.RoleAdmin,
				IsValidatedEmail: true,
			}
			return tx.Omit("Bookmarks").Create(&root).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&models.User{}).Where("id = ?", root.ID).
				Update("role", models.RoleAdmin).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("Development root admin ensured", slog.String("email", email))
	return nil
}
