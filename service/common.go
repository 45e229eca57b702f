package service

import (
	"fmt"
	"os"
	"strings"

	"folio/app/config"
	"folio/app/logging"
)

// loadConfig is a variable so tests can supply their own configuration.
var loadConfig = config.Load

// setup loads the configuration and initialises logging.
func setup() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	return cfg, nil
}

// confirm asks a yes/no question on stdin; anything but y or Y is no.
func confirm(question string) bool {
	fmt.Print(question + " [y/N] ")
	var response string
	_, _ = fmt.Scanln(&response)
	return strings.EqualFold(response, "y")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
