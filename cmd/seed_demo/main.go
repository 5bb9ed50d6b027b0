package main

import (
	"log"
	"time"

	"github.com/eatyaar/backend/config"
	"github.com/eatyaar/backend/internal/database"
	"github.com/eatyaar/backend/internal/models"
)

// Seeds a couple of demo givers and listings for local development.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	users := []models.User{
		{Phone: "+919900000001", Name: "Priya", City: "Pune", Area: "Koregaon Park", TrustScore: 4.6},
		{Phone: "+919900000002", Name: "Arjun", City: "Pune", Area: "Baner", TrustScore: 4.1},
	}
	for i := range users {
		if err := db.Where("phone = ?", users[i].Phone).FirstOrCreate(&users[i]).Error; err != nil {
			log.Fatalf("Failed to seed user %s: %v", users[i].Phone, err)
		}
	}

	now := time.Now()
	listings := []models.Listing{
		{
			Title:              "Homemade Dal & Rice",
			Description:        "Fresh dal tadka with steamed rice, enough for three.",
			FoodType:           models.FoodVeg,
			Servings:           3,
			CookedAt:           now.Add(-time.Hour),
			PickupBy:           now.Add(5 * time.Hour),
			AreaName:           "Koregaon Park",
			ExactAddress:       "Flat 4B, Sunrise Apartments, Lane 5",
			City:               "Pune",
			State:              "Maharashtra",
			Pincode:            "411001",
			Status:             models.ListingAvailable,
			PostedByUserID:     users[0].ID,
			PostedByTrustScore: users[0].TrustScore,
		},
		{
			Title:              "Wedding Biryani",
			Description:        "Leftover chicken biryani from a reception, still warm.",
			FoodType:           models.FoodNonVeg,
			Servings:           10,
			CookedAt:           now.Add(-2 * time.Hour),
			PickupBy:           now.Add(3 * time.Hour),
			AreaName:           "Baner",
			ExactAddress:       "Bungalow 12, Sun City Road",
			City:               "Pune",
			State:              "Maharashtra",
			Pincode:            "411045",
			Status:             models.ListingAvailable,
			PostedByUserID:     users[1].ID,
			PostedByTrustScore: users[1].TrustScore,
		},
	}
	for i := range listings {
		if err := db.Where("title = ? AND posted_by_user_id = ?", listings[i].Title, listings[i].PostedByUserID).
			FirstOrCreate(&listings[i]).Error; err != nil {
			log.Fatalf("Failed to seed listing %q: %v", listings[i].Title, err)
		}
	}

	log.Printf("Seeded %d users and %d listings", len(users), len(listings))
}
