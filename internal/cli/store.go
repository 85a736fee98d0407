package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/keyring"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/storage"
	"github.com/julianstephens/hard75/internal/storage/postgres"
	"github.com/julianstephens/hard75/internal/storage/sqlite"
)

// KeyringConfig selects the PostgreSQL connection string stored in the OS keyring.
const KeyringConfig = "keyring"

// OpenStore picks the backend for config. A connection string in the
// environment wins, then the keyring, then a PostgreSQL URL given directly,
// and anything else is a SQLite file path.
func OpenStore(config string) (storage.Provider, error) {
	if os.Getenv(constants.EnvConnectionString) != "" || config == KeyringConfig {
		connStr, source, err := keyring.ResolveConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, fmt.Errorf("no connection string in keyring, run '%s keyring set' first", constants.AppName)
			}
			return nil, err
		}
		if err := postgres.ValidateConnString(connStr); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, err
		}
		logger.Debug("Using PostgreSQL store", "source", source)
		return postgres.New(connStr), nil
	}

	if postgres.IsConnString(config) || strings.Contains(config, "host=") {
		if err := postgres.ValidateConnString(config); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w; store it with '%s keyring set' or export %s instead",
					err, constants.AppName, constants.EnvConnectionString)
			}
			return nil, err
		}
		logger.Debug("Using PostgreSQL store", "source", "flag")
		return postgres.New(config), nil
	}

	path := kong.ExpandPath(config)
	logger.Debug("Using SQLite store", "path", path)
	return sqlite.NewStore(path), nil
}
