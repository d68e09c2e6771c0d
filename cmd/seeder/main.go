// cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ammerola/minimarket-pos/internal/adapters/db"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/pkg/config"
	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
)

func main() {
	var (
		catalogFile = pflag.String("catalog", "", "xlsx file with Code, Name, Price, Stock, Category columns; the demo catalog when empty")
		logLevel    = pflag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun      = pflag.Bool("dry-run", false, "Preview changes without modifying database")
		migrate     = pflag.Bool("migrate", true, "Apply database migrations first")
	)
	pflag.Parse()

	slogger := logger.Setup(&logger.LogConfig{Level: *logLevel, Format: "json", Output: "stderr"})

	products := demoCatalog()
	if *catalogFile != "" {
		var bad []rowError
		var err error
		products, bad, err = readCatalog(*catalogFile)
		if err != nil {
			slogger.Error("failed to read catalog", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, e := range bad {
			slogger.Warn("skipping catalog row", slog.Int("row", e.Row), slog.String("error", e.Err.Error()))
		}
	}

	if *dryRun {
		printCatalog(products)
		fmt.Println("\n[DRY RUN] No changes were made to the database")
		return
	}

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	if *migrate {
		err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
			DatabaseURL: cfg.GetDatabaseURL(),
			SourcePath:  cfg.Database.MigrationPath,
		}, slogger, 3)
		if err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Database:       cfg.Database.Name,
		SSLMode:        cfg.Database.SSLMode,
		MaxConnections: 2,
		MinConnections: 1,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}, slogger)
	if err != nil {
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	s := newSeeder(db.NewProductRepository(database, slogger), slogger)
	saved, err := s.seed(ctx, products)
	if err != nil {
		slogger.Error("seed operation failed",
			slog.Int("products_saved", saved),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	printCatalog(products)
	slogger.Info("seed operation completed",
		slog.Int("products_saved", saved),
		slog.Int("categories", len(s.categories)))
}

func printCatalog(products []domain.Product) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("%-10s %-28s %10s %6s\n", "CODE", "NAME", "PRICE", "STOCK")
	fmt.Println(strings.Repeat("=", 60))
	for _, p := range products {
		fmt.Printf("%-10s %-28s %10s %6d\n", p.Code, p.Name, domain.FormatCLP(p.UnitPrice), p.AvailableStock)
	}
	fmt.Printf("\nTotal products: %d\n", len(products))
}
