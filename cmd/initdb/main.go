// Command initdb applies the schema in one transaction, mirroring what the
// deployment scripts expect from a fresh database.
package main

import (
	"context"
	_ "embed"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"github.com/sudo-init-do/localmart/internal/store/postgres"
)

//go:embed schema.sql
var schema string

func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	conn, err := pgx.Connect(ctx, postgres.DSNFromEnv())
	if err != nil {
		log.Fatalf("unable to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		log.Fatalf("begin failed: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range splitStatements(schema) {
		log.Printf("executing: %.60s...", stmt)
		if _, err := tx.Exec(ctx, stmt); err != nil {
			log.Fatalf("statement failed: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit failed: %v", err)
	}
	log.Println("database initialization completed")
}

func splitStatements(sql string) []string {
	var out []string
	for _, stmt := range strings.Split(sql, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
