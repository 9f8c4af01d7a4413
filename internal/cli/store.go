package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/postgres"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

var (
	keyringConnString = keyring.GetConnectionString
	getenv            = os.Getenv
)

// IsPostgres reports whether target is a PostgreSQL URL or key=value DSN.
func IsPostgres(target string) bool {
	return strings.HasPrefix(target, "postgres://") ||
		strings.HasPrefix(target, "postgresql://") ||
		strings.Contains(target, "host=")
}

// OpenStore picks the backend for target. PostgreSQL targets must not
// embed a password.
func OpenStore(target string) (storage.Provider, error) {
	if IsPostgres(target) {
		if err := postgres.ValidateConnString(target); err != nil {
			return nil, err
		}
		return postgres.New(target), nil
	}
	path, err := config.ExpandPath(target)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path), nil
}

// ResolveStore chooses the database for this run: an explicit target
// wins, then HABITUAL_DB_CONNECTION, then a connection string kept in
// the OS keyring, then the configured path. Secrets from the environment
// or the keyring may carry a password.
func ResolveStore(cfg *config.Config, target string) (storage.Provider, error) {
	if target != "" {
		return OpenStore(target)
	}
	if env := strings.TrimSpace(getenv(constants.EnvDBConnection)); env != "" {
		if IsPostgres(env) {
			return postgres.New(env), nil
		}
		return OpenStore(env)
	}
	if !cfg.Database.IsPostgres() {
		connStr, err := keyringConnString()
		switch {
		case err == nil && connStr != "":
			logger.Debug("Using connection string from OS keyring")
			return postgres.New(connStr), nil
		case err != nil && !errors.Is(err, keyring.ErrNotFound):
			logger.Debug("OS keyring lookup failed", "err", err)
		}
	}
	if cfg.Database.Path == "" {
		return nil, fmt.Errorf("no database configured")
	}
	return OpenStore(cfg.Database.Path)
}
