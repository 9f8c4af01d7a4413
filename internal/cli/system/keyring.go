package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/storage/postgres"
)

type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string or SMTP password in the OS keyring."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove a stored secret from the OS keyring."`
	Status KeyringStatusCmd `cmd:"" help:"Check the OS keyring and stored secrets." default:"1"`
}

// KeyringSetCmd stores a secret in the OS keyring
type KeyringSetCmd struct {
	Secret string `arg:"" help:"Connection string or password to store."`
	SMTP   bool   `name:"smtp" help:"Store the SMTP password instead of a connection string."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	if cmd.SMTP {
		if strings.TrimSpace(cmd.Secret) == "" {
			return errors.New("SMTP password cannot be empty")
		}
		if err := keyring.SetSMTPPassword(cmd.Secret); err != nil {
			return fmt.Errorf("failed to store SMTP password in keyring: %w", err)
		}
		ctx.Println("✓ SMTP password stored successfully in OS keyring")
		return nil
	}

	if !cli.IsPostgres(cmd.Secret) {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if err := postgres.ValidateConnString(cmd.Secret); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		ctx.Println("⚠️  Warning: Connection string contains embedded credentials.")
		ctx.Println("   It will be stored as-is in the encrypted OS keyring.")
	}

	if err := keyring.SetConnectionString(cmd.Secret); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	ctx.Println("✓ Connection string stored successfully in OS keyring")
	ctx.Println("  habitual will use it when no database is given on the command line")
	return nil
}

type KeyringDeleteCmd struct {
	SMTP bool `name:"smtp" help:"Delete the SMTP password instead of the connection string."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	what, del := "connection string", keyring.DeleteConnectionString
	if cmd.SMTP {
		what, del = "SMTP password", keyring.DeleteSMTPPassword
	}
	if err := del(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", what)
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", what, err)
	}
	ctx.Printf("✓ %s deleted from OS keyring\n", strings.ToUpper(what[:1])+what[1:])
	return nil
}

// KeyringStatusCmd checks the availability of the OS keyring
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	ctx.Println("✓ OS keyring is available")

	if connStr, err := keyring.GetConnectionString(); err == nil {
		ctx.Printf("✓ Connection string is stored in keyring: %s\n", maskPassword(connStr))
	} else if errors.Is(err, keyring.ErrNotFound) {
		ctx.Println("ℹ No connection string stored in keyring")
	}
	if _, err := keyring.GetSMTPPassword(); err == nil {
		ctx.Println("✓ SMTP password is stored in keyring")
	} else if errors.Is(err, keyring.ErrNotFound) {
		ctx.Println("ℹ No SMTP password stored in keyring")
	}
	return nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}
	return connStr
}
