package commands

import (
	"fmt"
	"os"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/config"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/database"
)

// openDB loads configuration and connects to the database. The returned
// close func reports failures on stderr.
func openDB() (*database.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}, nil
}
