// Command seed loads the band roster and booking constraints into Postgres
// from a JSON file. It is idempotent: rerunning with the same file leaves
// the tables in the same state.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

type seedFile struct {
	Roster []struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"roster"`
	Constraints []struct {
		Kind  string         `json:"kind"`
		Value map[string]any `json:"value"`
	} `json:"constraints"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: seed <seed-file.json>")
		os.Exit(1)
	}

	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Println("Error: DATABASE_URL environment variable not set")
		os.Exit(1)
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Printf("Error reading seed file: %v\n", err)
		os.Exit(1)
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		fmt.Printf("Error parsing seed file: %v\n", err)
		os.Exit(1)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, m := range seed.Roster {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO roster_members (email, name)
			VALUES (lower($1), $2)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name`,
			m.Email, m.Name); err != nil {
			fmt.Printf("Error seeding roster member %s: %v\n", m.Email, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Seeded %d roster members\n", len(seed.Roster))

	for _, c := range seed.Constraints {
		value, err := json.Marshal(c.Value)
		if err != nil {
			fmt.Printf("Error encoding constraint %s: %v\n", c.Kind, err)
			os.Exit(1)
		}
		if _, err := db.ExecContext(ctx, `
			INSERT INTO booking_constraints (kind, value)
			VALUES ($1, $2)
			ON CONFLICT (kind) DO UPDATE SET value = EXCLUDED.value`,
			c.Kind, value); err != nil {
			fmt.Printf("Error seeding constraint %s: %v\n", c.Kind, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Seeded %d booking constraints\n", len(seed.Constraints))
}
