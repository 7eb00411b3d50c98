// Command financaia-keys mints single-use access keys for onboarding
// new users.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/ceconelo/financaia/internal/config"
	"github.com/ceconelo/financaia/internal/services"
	"github.com/ceconelo/financaia/internal/storage"
)

var count = flag.Int("n", 1, "Number of access keys to generate.")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	if *count < 1 {
		fmt.Fprintln(os.Stderr, "-n must be at least 1")
		os.Exit(2)
	}

	cfg := config.Load()
	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "open database %s: %v\n", cfg.SQLiteDBPath, err)
		os.Exit(1)
	}
	defer store.Close()

	authSvc := services.NewAuthService(store)
	ctx := context.Background()

	for i := 0; i < *count; i++ {
		key, err := authSvc.GenerateKey(ctx)
		if err != nil {
			color.New(color.FgRed).Fprintf(os.Stderr, "generate key: %v\n", err)
			os.Exit(1)
		}
		color.New(color.FgGreen, color.Bold).Printf("%s\n", key.Key)
	}

	fmt.Fprintf(os.Stderr, "%d key(s) written to %s\n", *count, cfg.SQLiteDBPath)
}
