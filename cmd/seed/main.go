package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"lodgedesk/internal/config"
	"lodgedesk/internal/database"
	"lodgedesk/internal/domain"
	"lodgedesk/internal/repository"
)

type seedFile struct {
	Rooms   []domain.Room      `json:"rooms"`
	Aliases []domain.RoomAlias `json:"aliases"`
}

func main() {
	path := flag.String("file", "seed.json", "catalog seed file")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal("cannot read seed file:", err)
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		log.Fatal("cannot parse seed file:", err)
	}

	ctx := context.Background()
	rooms := repository.NewRoomRepository(db)

	for _, r := range seed.Rooms {
		if r.Kind == domain.RoomPrivate && r.CapacityBeds != 1 {
			log.Fatalf("room %s: private rooms must have capacity_beds=1", r.ID)
		}
		if err := rooms.UpsertRoom(ctx, r); err != nil {
			log.Fatalf("room %s: %v", r.ID, err)
		}
		log.Printf("room %s (%s, %d beds) seeded", r.ID, r.Kind, r.CapacityBeds)
	}

	for _, a := range seed.Aliases {
		if err := rooms.UpsertAlias(ctx, a); err != nil {
			log.Fatalf("alias %s/%s: %v", a.Location, a.Alias, err)
		}
	}
	log.Printf("seeded %d rooms, %d aliases", len(seed.Rooms), len(seed.Aliases))
}
