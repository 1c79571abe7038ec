package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/poyrazK/cloudKeys/internal/app"
	"github.com/poyrazK/cloudKeys/internal/config"
	"github.com/poyrazK/cloudKeys/internal/core/domain"
	"github.com/poyrazK/cloudKeys/internal/core/ports"
)

const usage = "expected 'create', 'list', 'revoke', 'regenerate' or 'lookup' subcommands"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cfg, err := config.Load(os.Getenv("CLOUDKEYS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.Backend == "memory" {
		fmt.Fprintln(os.Stderr, "warning: memory storage is not shared with the key server; set CLOUDKEYS_STORAGE__BACKEND")
	}

	svc, closeRepo, err := app.NewKeyService(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open storage: %v\n", err)
		os.Exit(1)
	}

	err = run(os.Args[1:], os.Stdout, svc)
	if cerr := closeRepo(); cerr != nil {
		fmt.Fprintf(os.Stderr, "failed to close storage: %v\n", cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer, svc ports.KeyService) error {
	if len(args) < 1 {
		return errors.New(usage)
	}
	ctx := context.Background()

	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(out)
	tenantID := flags.String("tenant", "default-tenant", "Tenant ID")

	switch args[0] {
	case "create":
		name := flags.String("name", "generic-key", "Description of the key")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}
		return createKey(ctx, svc, *tenantID, *name, out)
	case "list":
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}
		return listKeys(ctx, svc, *tenantID, out)
	case "revoke":
		id := flags.String("id", "", "API Key UUID to revoke")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}
		return revokeKey(ctx, svc, *tenantID, *id, out)
	case "regenerate":
		id := flags.String("id", "", "API Key UUID to regenerate")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}
		return regenerateKey(ctx, svc, *tenantID, *id, out)
	case "lookup":
		secret := flags.String("secret", "", "Secret to resolve")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}
		return lookupKey(ctx, svc, *tenantID, *secret, out)
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func createKey(ctx context.Context, svc ports.KeyService, tenantID, name string, out io.Writer) error {
	if err := domain.ValidateKeyName(name); err != nil {
		return err
	}
	key, err := svc.CreateKey(ctx, tenantID, name)
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	printSecret(out, "API Key Created Successfully!", tenantID, key)
	return nil
}

func listKeys(ctx context.Context, svc ports.KeyService, tenantID string, out io.Writer) error {
	keys, err := svc.ListKeys(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to list API keys: %w", err)
	}

	fmt.Fprintf(out, "API Keys for Tenant: %s\n", tenantID)
	fmt.Fprintf(out, "%-36s %s\n", "ID", "Name")
	for _, k := range keys {
		fmt.Fprintf(out, "%-36s %s\n", k.ID, k.Name)
	}
	return nil
}

func revokeKey(ctx context.Context, svc ports.KeyService, tenantID, id string, out io.Writer) error {
	if id == "" {
		return errors.New("ID is required for revocation")
	}
	if err := svc.DeleteKey(ctx, tenantID, id); err != nil {
		return fmt.Errorf("failed to revoke API key %s: %w", id, err)
	}
	fmt.Fprintf(out, "API Key %s revoked (deleted)\n", id)
	return nil
}

func regenerateKey(ctx context.Context, svc ports.KeyService, tenantID, id string, out io.Writer) error {
	if id == "" {
		return errors.New("ID is required for regeneration")
	}
	key, err := svc.RegenerateKey(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to regenerate API key %s: %w", id, err)
	}
	printSecret(out, "API Key Regenerated Successfully!", tenantID, key)
	return nil
}

func lookupKey(ctx context.Context, svc ports.KeyService, tenantID, secret string, out io.Writer) error {
	if secret == "" {
		return errors.New("secret is required for lookup")
	}
	view, err := svc.LookupKey(ctx, tenantID, secret)
	if err != nil {
		return fmt.Errorf("failed to look up API key: %w", err)
	}
	fmt.Fprintf(out, "ID:         %s\n", view.ID)
	fmt.Fprintf(out, "Name:       %s\n", view.Name)
	return nil
}

func printSecret(out io.Writer, title, tenantID string, key *domain.APIKey) {
	fmt.Fprintf(out, "%s\n", title)
	fmt.Fprintf(out, "---------------------------\n")
	fmt.Fprintf(out, "ID:         %s\n", key.ID)
	fmt.Fprintf(out, "Tenant:     %s\n", tenantID)
	fmt.Fprintf(out, "Name:       %s\n", key.Name)
	fmt.Fprintf(out, "VALUE:      %s\n", key.Secret)
	fmt.Fprintf(out, "---------------------------\n")
	fmt.Fprintf(out, "CAUTION: This is the only time the key will be shown.\n")
}
