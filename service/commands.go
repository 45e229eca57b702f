package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"folio/app/clients"
	"folio/app/controllers"
	"folio/app/repositories"
	"folio/app/services"
)

// backupDir receives KV backups made without an explicit file.
var backupDir = "data/backups"

// HandleCommand runs a subcommand and returns an exit code.
func HandleCommand(args []string) int {
	if len(args) < 1 {
		printCommandHelp()
		return 1
	}

	cmd := args[0]
	switch cmd {
	case "serve":
		return serve()
	case "migrate":
		return migrate()
	case "create-account":
		if len(args) < 2 {
			fmt.Println("Error: username required for create-account")
			return 1
		}
		return createAccount(args[1])
	case "index":
		return index()
	case "clean":
		return clean()
	case "backup":
		file := ""
		if len(args) > 1 {
			file = args[1]
		}
		return backup(file)
	case "restore":
		if len(args) < 2 {
			fmt.Println("Error: backup file path required for restore")
			return 1
		}
		return restore(args[1])
	case "help":
		printCommandHelp()
		return 0
	default:
		fmt.Printf("Unknown command: %s\n\n", cmd)
		printCommandHelp()
		return 1
	}
}

// printCommandHelp prints help for the subcommands.
func printCommandHelp() {
	helpText := `Usage: folio <command> [options]

Commands:
  serve                           Run the blog server
  migrate                         Create the database tables and indexes
  create-account <username>       Create an admin account (password from FOLIO_ADMIN_PASSWORD or stdin)
  index                           Push every page to the Algolia search index
  clean                           Delete the view counter store
  backup [file]                   Back up the view counter store
  restore <file>                  Restore the view counter store from a backup
  version                         Show version information
  help                            Display this help message
`
	fmt.Println(helpText)
}

func serve() int {
	cfg, err := setup()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return 1
	}
	if err := RunAppServer(cfg); err != nil {
		fmt.Printf("Server error: %v\n", err)
		return 1
	}
	return 0
}

func migrate() int {
	cfg, err := setup()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return 1
	}
	db, err := repositories.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	if err := repositories.Migrate(context.Background(), db); err != nil {
		fmt.Printf("Failed to migrate database: %v\n", err)
		return 1
	}
	fmt.Println("Database migrated successfully")
	return 0
}

// createAccount adds an administrator.
func createAccount(username string) int {
	cfg, err := setup()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return 1
	}

	password := os.Getenv("FOLIO_ADMIN_PASSWORD")
	if password == "" {
		fmt.Print("Password: ")
		_, _ = fmt.Scanln(&password)
	}

	ctx := context.Background()
	db, err := repositories.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()
	if err := repositories.Migrate(ctx, db); err != nil {
		fmt.Printf("Failed to migrate database: %v\n", err)
		return 1
	}

	auth := services.NewAuthService(repositories.NewBunAccountRepository(db), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if _, err := auth.CreateAccount(ctx, username, password); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			fmt.Printf("Account %s already exists\n", username)
			return 1
		}
		fmt.Printf("Failed to create account: %v\n", err)
		return 1
	}
	fmt.Printf("Account %s created\n", username)
	return 0
}

// index renders every site page and pushes its text to Algolia.
func index() int {
	cfg, err := setup()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return 1
	}
	if cfg.Search.AlgoliaAppID == "" || cfg.Search.AlgoliaAPIKey == "" || cfg.Search.AlgoliaIndex == "" {
		fmt.Println("Error: Algolia is not configured (ALGOLIA_APP_ID, ALGOLIA_WRITE_API_KEY, ALGOLIA_INDEX_NAME)")
		return 1
	}

	ctx := context.Background()
	app, err := NewApp(ctx, cfg)
	if err != nil {
		fmt.Printf("Failed to start application: %v\n", err)
		return 1
	}
	defer app.Close()

	algolia := clients.NewAlgoliaClient(cfg.Search.AlgoliaEndpoint, cfg.Search.AlgoliaAppID, cfg.Search.AlgoliaAPIKey, cfg.Search.AlgoliaIndex)
	paths := controllers.NewFeedController(app.Entries, cfg.OG.SiteName, cfg.Server.Site).Paths()
	res := services.NewSearchIndexer(app.Router, algolia).IndexPaths(ctx, paths)

	fmt.Printf("Indexed %d pages (%d skipped, %d failed)\n", res.Indexed, res.Skipped, res.Failed)
	if res.Failed > 0 {
		return 1
	}
	return 0
}

// clean removes the view counter store.
func clean() int {
	cfg, err := setup()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return 1
	}
	if !exists(cfg.KV.Path) {
		fmt.Println("Store is already clean (does not exist)")
		return 0
	}

	if !confirm("Are you sure you want to clean the view counter store? This cannot be undone.") {
		fmt.Println("Operation cancelled")
		return 0
	}

	if err := os.RemoveAll(cfg.KV.Path); err != nil {
		fmt.Printf("Failed to clean store: %v\n", err)
		return 1
	}
	fmt.Println("Store cleaned successfully")
	return 0
}

// backup writes a full backup of the view counter store.
func backup(file string) int {
	cfg, err := setup()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return 1
	}
	if !exists(cfg.KV.Path) {
		fmt.Println("No store exists to backup")
		return 1
	}

	if file == "" {
		if err := os.MkdirAll(backupDir, 0755); err != nil {
			fmt.Printf("Failed to create backup directory: %v\n", err)
			return 1
		}
		file = filepath.Join(backupDir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
	}

	kv, err := repositories.NewBadgerStore(cfg.KV.Path, false)
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		return 1
	}
	defer kv.Close()

	f, err := os.Create(file)
	if err != nil {
		fmt.Printf("Failed to create backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if err := kv.Backup(f); err != nil {
		fmt.Printf("Failed to backup store: %v\n", err)
		return 1
	}

	fmt.Printf("Store backed up successfully to %s\n", file)
	return 0
}

// restore replaces the view counter store with a backup.
func restore(backupFile string) int {
	cfg, err := setup()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return 1
	}

	fi, err := os.Stat(backupFile)
	if err != nil {
		fmt.Printf("Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Printf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	if exists(cfg.KV.Path) {
		if !confirm("Existing store found. Do you want to replace it?") {
			fmt.Println("Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(cfg.KV.Path); err != nil {
			fmt.Printf("Failed to remove existing store: %v\n", err)
			return 1
		}
	}

	kv, err := repositories.NewBadgerStore(cfg.KV.Path, false)
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		return 1
	}
	defer kv.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Printf("Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if err := kv.Load(f); err != nil {
		fmt.Printf("Failed to restore store: %v\n", err)
		return 1
	}

	fmt.Println("Store restored successfully")
	return 0
}
