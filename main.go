package main

import (
	"fmt"
	"os"
	"strings"

	"folio/service"
)

// CliVersion is the folio release.
const CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches os.Args to the service commands.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help", "-h", "--help":
		printHelp()
	case "version":
		fmt.Printf("folio version %s\n", CliVersion)
	default:
		exit(service.HandleCommand(append([]string{cmd}, os.Args[2:]...)))
	}
}

func printHelp() {
	helpText := `Usage: folio <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve                          Run the blog server.
  migrate                        Create the database tables and indexes.
  create-account <username>      Create an admin account.
  index                          Push every page to the Algolia search index.
  clean                          Delete the view counter store.
  backup [file]                  Back up the view counter store.
  restore <file>                 Restore the view counter store from a backup.

Configuration is read from config.yaml (or CONFIG_PATH) and FOLIO_* variables.
`
	fmt.Println(helpText)
}
