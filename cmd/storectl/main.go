// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/buildmc/storefront/internal/auth"
	"github.com/buildmc/storefront/internal/config"
	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/role"
	"github.com/buildmc/storefront/internal/status"
	"github.com/buildmc/storefront/internal/user"
	"github.com/buildmc/storefront/migrations"
)

const usage = `usage: storectl <command> [flags]

commands:
  migrate      apply pending database migrations
  gen-keys     write an ES256 keypair for access tokens
  grant-role   assign a role to an existing account
  prune        delete refresh tokens that expired before a grace window
  status       query the game server and community stats`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	var err error
	switch os.Args[1] {
	case "migrate":
		err = runMigrate(ctx, os.Args[2:])
	case "gen-keys":
		err = runGenKeys(os.Args[2:])
	case "grant-role":
		err = runGrantRole(ctx, os.Args[2:])
	case "prune":
		err = runPrune(ctx, os.Args[2:])
	case "status":
		err = runStatus(ctx, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func openDatabase(ctx context.Context, configPath string) (*core.Database, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return core.NewDatabase(ctx, cfg.Database)
}

func runMigrate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	_ = fs.Parse(args) //nolint:errcheck // ExitOnError

	db, err := openDatabase(ctx, *configPath)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		return err
	}

	if len(applied) == 0 {
		fmt.Println("database is up to date")
		return nil
	}
	for _, v := range applied {
		fmt.Printf("applied %s\n", v)
	}
	return nil
}

func runGenKeys(args []string) error {
	fs := flag.NewFlagSet("gen-keys", flag.ExitOnError)
	dir := fs.String("dir", "keys", "output directory")
	force := fs.Bool("force", false, "overwrite existing keys")
	_ = fs.Parse(args) //nolint:errcheck // ExitOnError

	privatePath := filepath.Join(*dir, "private.pem")
	publicPath := filepath.Join(*dir, "public.pem")

	if !*force {
		if _, err := os.Stat(privatePath); err == nil {
			return fmt.Errorf("%s exists, pass -force to replace it", privatePath)
		}
	}

	if err := os.MkdirAll(*dir, 0o700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}
	if err := auth.GenerateKeyPair(privatePath, publicPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s and %s\n", privatePath, publicPath)
	return nil
}

func runGrantRole(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("grant-role", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	email := fs.String("email", "", "account email")
	roleName := fs.String("role", role.RoleAdmin, "role to grant")
	_ = fs.Parse(args) //nolint:errcheck // ExitOnError

	if *email == "" {
		fs.PrintDefaults()
		return errors.New("email is required")
	}

	db, err := openDatabase(ctx, *configPath)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	account, err := user.NewService(user.NewRepository(db.DB), nil, slog.Default()).GetByEmail(ctx, *email)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", *email, err)
	}

	roles := role.NewService(role.NewRepository(db.DB), nil, slog.Default())
	assigned, err := roles.Add(ctx, account.ID, *roleName)
	if err != nil {
		return err
	}

	fmt.Printf("granted %s to %s (%s)\n", assigned.Role, *email, assigned.ID)
	return nil
}

func runPrune(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	grace := fs.Duration("grace", 24*time.Hour, "keep tokens expired less than this long ago")
	_ = fs.Parse(args) //nolint:errcheck // ExitOnError

	db, err := openDatabase(ctx, *configPath)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	n, err := auth.NewRepository(db.DB).PruneExpired(ctx, time.Now().Add(-*grace))
	if err != nil {
		return err
	}

	fmt.Printf("pruned %d expired refresh tokens\n", n)
	return nil
}

type statusReport struct {
	Minecraft any `json:"minecraft,omitempty"`
	Discord   any `json:"discord,omitempty"`
}

func runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverIP := fs.String("server", "", "game server address")
	discordID := fs.String("discord", "", "discord server id")
	watch := fs.Duration("watch", 0, "repeat at this interval until interrupted")
	_ = fs.Parse(args) //nolint:errcheck // ExitOnError

	if *serverIP == "" && *discordID == "" {
		fs.PrintDefaults()
		return errors.New("one of -server or -discord is required")
	}

	client := &http.Client{Timeout: status.DefaultAttemptTimeout + time.Second}
	minecraft := status.NewMinecraftClient(client, status.MinecraftOptions{}, slog.Default())
	discord := status.NewDiscordClient(client, "", slog.Default())

	check := func(ctx context.Context) error {
		var report statusReport
		var g errgroup.Group
		if *serverIP != "" {
			g.Go(func() error {
				st, err := minecraft.Status(ctx, *serverIP)
				if err != nil {
					report.Minecraft = status.ServerFailure{Error: err.Error()}
					return err
				}
				report.Minecraft = st
				return nil
			})
		}
		if *discordID != "" {
			g.Go(func() error {
				st, err := discord.Stats(ctx, *discordID)
				if err != nil {
					report.Discord = status.NewDiscordFailure(err)
					return err
				}
				report.Discord = st
				return nil
			})
		}
		err := g.Wait()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return encErr
		}
		return err
	}

	if *watch <= 0 {
		return check(ctx)
	}

	poller := status.NewPoller("storectl", *watch, 0, check, slog.Default())
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
