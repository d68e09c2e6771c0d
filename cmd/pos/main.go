// cmd/pos/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ammerola/minimarket-pos/internal/adapters/inventoryclient"
	"github.com/ammerola/minimarket-pos/internal/adapters/notify"
	redis_a "github.com/ammerola/minimarket-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/internal/pkg/config"
	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
	"github.com/ammerola/minimarket-pos/internal/terminal"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// listRetries is how many times a failed product listing is retried
const listRetries = 2

func main() {
	flags := pflag.NewFlagSet("pos", pflag.ExitOnError)
	flags.String("inventory-url", "", "inventory service base URL (INVENTORY_URL)")
	flags.String("cart-key", "", "key the cart is persisted under (CART_STORAGE_KEY)")
	flags.String("payment-method", "", "initial payment method: cash, card or transfer (PAYMENT_METHOD)")
	flags.String("scan-timeout", "", "scanner inactivity reset such as 500ms, 0 disables it (SCAN_TIMEOUT)")
	logFile := flags.String("log-file", "", "write logs to this file instead of stderr")
	_ = flags.Parse(os.Args[1:])

	// Flags override the environment when given
	for key, name := range map[string]string{
		"INVENTORY_URL":    "inventory-url",
		"CART_STORAGE_KEY": "cart-key",
		"PAYMENT_METHOD":   "payment-method",
		"SCAN_TIMEOUT":     "scan-timeout",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}

	output := "stderr"
	if *logFile != "" {
		output = "file:" + *logFile
	}

	slogger := logger.Setup(&logger.LogConfig{Level: "info", Format: "text", Output: output})

	cfg, err := config.Load(slogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %s\n", err)
		os.Exit(1)
	}

	slogger = logger.Setup(&logger.LogConfig{
		Level:          cfg.App.LogLevel,
		Format:         cfg.App.LogFormat,
		Output:         output,
		Environment:    cfg.App.Environment,
		ServiceName:    "pos",
		ServiceVersion: Version,
	})
	slogger.Info("starting checkout terminal",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("inventory_url", cfg.POS.InventoryURL),
		slog.String("cart_key", cfg.POS.CartKey),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, slogger); err != nil && !errors.Is(err, context.Canceled) {
		slogger.Error("terminal stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slogger.Info("terminal shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, slogger *slog.Logger) error {
	redisClient := redis.NewClient(&redis.Options{
		Addr:            cfg.GetRedisAddr(),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
	})
	defer redisClient.Close()

	// The terminal keeps selling without persistence; every failed save is
	// logged by the cart.
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slogger.Warn("cart storage unreachable, the cart will not survive a restart",
			slog.String("addr", cfg.GetRedisAddr()),
			slog.String("error", err.Error()))
	}

	inventory, err := inventoryclient.New(inventoryclient.Config{
		BaseURL:     cfg.POS.InventoryURL,
		ListTimeout: cfg.POS.CatalogTimeout / (listRetries + 1),
		ListRetries: listRetries,
	}, slogger)
	if err != nil {
		return err
	}

	toaster := notify.NewToaster(cfg.POS.NotificationDuration, slogger)
	defer toaster.Close()

	catalog := services.NewCatalog(inventory, toaster, cfg.POS.CatalogTimeout, slogger)
	store := redis_a.NewCartStore(redisClient, cfg.POS.CartKey, slogger)
	cart := services.NewCartEngine(catalog, store, toaster, slogger)
	checkout := services.NewCheckout(cart, catalog, inventory, toaster, slogger)
	scanner := services.NewScanAdapter(catalog, cart, toaster, cfg.POS.ScanTimeout, slogger)

	if cfg.POS.PaymentMethod != "" {
		method, err := domain.ParsePaymentMethod(cfg.POS.PaymentMethod)
		if err != nil {
			return err
		}
		if err := checkout.SetPaymentMethod(method); err != nil {
			return err
		}
	}

	console := terminal.NewConsole(cart, checkout, catalog, scanner, toaster, os.Stdin, os.Stdout, slogger)

	// A failed load has already been shown; the cashier can :reload.
	start := time.Now()
	if err := catalog.Reload(ctx); err == nil {
		slogger.Info("catalog loaded",
			slog.Int("products", len(catalog.Products())),
			slog.Duration("duration", time.Since(start)))
	}
	cart.Restore(ctx)

	// Reading stdin cannot be interrupted, so a signal ends the process
	// without waiting for the console.
	done := make(chan error, 1)
	go func() { done <- console.Run(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
