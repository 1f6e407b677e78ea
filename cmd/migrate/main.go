// Command migrate applies the billing engine's SQL schema.
//
// Usage:
//
//	migrate [flags] <command> [args]
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/config"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/migration"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "migrations", "migrations directory")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log, *dir, args); err != nil {
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger, dir string, args []string) error {
	cmd, rest := args[0], args[1:]

	// create and list work on files only
	switch cmd {
	case "create":
		if len(rest) == 0 {
			return fmt.Errorf("usage: migrate create <name> [description]")
		}
		desc := ""
		if len(rest) > 1 {
			desc = rest[1]
		}
		f, err := migration.Create(dir, rest[0], desc)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s\n        %s\n", f.UpPath, f.DownPath)
		return nil
	case "list":
		files, err := migration.List(dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Printf("%06d  %s\n", f.Version, f.Name)
		}
		return nil
	case "verify":
		if err := migration.Verify(dir); err != nil {
			return err
		}
		fmt.Println("OK")
		return nil
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	m, err := migration.New(db, dir, log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	switch cmd {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		n, err := intArg(rest)
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		n, err := intArg(rest)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("version must be non-negative")
		}
		return m.GoTo(uint(n))
	case "force":
		n, err := intArg(rest)
		if err != nil {
			return err
		}
		return m.Force(n)
	case "version", "status":
		st, err := m.Status()
		if err != nil {
			return err
		}
		fmt.Printf("version: %d (dirty: %t)\n", st.Version, st.Dirty)
		for _, f := range st.Pending {
			fmt.Printf("pending: %06d_%s\n", f.Version, f.Name)
		}
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing numeric argument")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", args[0], err)
	}
	return n, nil
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Billing engine migration tool

Usage:
  migrate [-dir migrations] <command> [args]

Commands:
  up                    apply all pending migrations
  down                  roll back all migrations
  step <n>              apply n migrations (negative rolls back)
  goto <version>        migrate to a specific version
  force <version>       set the version without running SQL
  version | status      show the applied version and pending migrations
  create <name> [desc]  create the next numbered migration pair
  list                  list migration files
  verify                check that every migration has up and down scripts

Connection settings come from config.toml, .env, or the environment:
  FMS_DATABASE_HOST, FMS_DATABASE_PORT, FMS_DATABASE_USER,
  FMS_DATABASE_PASSWORD, FMS_DATABASE_DBNAME, FMS_DATABASE_SSLMODE
`)
}
