package main

import (
	"flag"
	"log"

	"Foodgram-Backend/cmd/config"
	migration "Foodgram-Backend/cmd/database/migrate"
	"Foodgram-Backend/cmd/database/seed"
	"Foodgram-Backend/internal/utils"
)

func main() {
	seedFile := flag.String("seed", "", "path to an ingredients CSV to import before serving")
	flag.Parse()

	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := migration.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	if *seedFile != "" {
		if err := seed.SeedIngredients(db, *seedFile); err != nil {
			log.Fatalf("failed to seed ingredients: %v", err)
		}
	}

	app, err := config.NewApp(db)
	if err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}

	if err := app.Listen(":8080"); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
