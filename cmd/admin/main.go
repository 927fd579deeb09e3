// Package main provides admin management utilities for Wanderlust.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"wanderlust/internal/config"
	"wanderlust/internal/database"
	"wanderlust/internal/models"
	"wanderlust/internal/repository"
	"wanderlust/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id>              - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <user_id>               - Demote admin to user")
	fmt.Println("  go run ./cmd/admin list-admins                    - List all admins")
	fmt.Println("  go run ./cmd/admin reassign-owner <from> <to>     - Move every listing of one user to another")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	users := service.NewUserService(userRepo, listingRepo, nil, nil, nil)
	listings := service.NewListingService(listingRepo, userRepo)
	ctx := context.Background()

	switch os.Args[1] {
	case "promote":
		setRole(ctx, users, argID(2), models.RoleAdmin)
	case "demote":
		setRole(ctx, users, argID(2), models.RoleUser)
	case "list-admins":
		listAdmins(ctx, users)
	case "reassign-owner":
		from, to := argID(2), argID(3)
		moved, err := listings.ReassignOwner(ctx, from, to)
		if err != nil {
			log.Fatalf("Failed to reassign listings: %v", err)
		}
		fmt.Printf("✅ Moved %d listing(s) from user %d to user %d\n", moved, from, to)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
	}
}

func argID(pos int) uint {
	if len(os.Args) <= pos {
		usage()
	}
	id, err := strconv.ParseUint(os.Args[pos], 10, 64)
	if err != nil || id == 0 {
		fmt.Printf("Invalid user ID: %s\n", os.Args[pos])
		os.Exit(1)
	}
	return uint(id)
}

func setRole(ctx context.Context, users *service.UserService, userID uint, role models.Role) {
	user, err := users.SetRole(ctx, userID, role)
	if err != nil {
		log.Fatalf("Failed to update role: %v", err)
	}
	fmt.Printf("✅ %s (ID: %d) is now %s\n", user.Name, user.ID, user.Role)
}

func listAdmins(ctx context.Context, users *service.UserService) {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Name: %s | Email: %s\n", admin.ID, admin.Name, admin.Email)
	}
	fmt.Println("─────────────────────────────────────")
}
