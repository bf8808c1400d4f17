// Package main provides the userhub command-line service surface.
//
// Subcommands execute commands and queries against the journal-backed store:
//
//	userhub create-session
//	userhub end-session -session <id> [-reason <text>]
//	userhub create-user -session <id> -name <name> -email <email>
//	userhub add-password -session <id> -user <id> -password <plaintext>
//	userhub deactivate-user -session <id> -user <id>
//	userhub change-email -session <id> -user <id> -email <email>
//	userhub rebuild -session <id> [-projection <name>]
//	userhub get-user -user <id>
//	userhub list-users [-limit n] [-offset n]
//	userhub resolve-token -token <token>
//	userhub commands
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	platformcmd "github.com/louisbranch/userhub/internal/platform/cmd"
	"github.com/louisbranch/userhub/internal/platform/config"
	"github.com/louisbranch/userhub/internal/platform/token"
	"github.com/louisbranch/userhub/internal/userhub/domain/command"
	"github.com/louisbranch/userhub/internal/userhub/projection"
	"github.com/louisbranch/userhub/internal/userhub/service"
	"github.com/louisbranch/userhub/internal/userhub/storage/sqlite"
)

type appConfig struct {
	DBPath      string `env:"USERHUB_DB_PATH" envDefault:"data/userhub.db"`
	TokenSecret string `env:"USERHUB_TOKEN_SECRET"`
}

func main() {
	log.SetPrefix("[USERHUB] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceUserhub, func(ctx context.Context) error {
		return run(ctx, os.Args[1:])
	}); err != nil {
		config.Exitf("userhub: %v", err)
	}
}

func run(ctx context.Context, args []string) error {
	var cfg appConfig
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("a subcommand is required, see -help")
	}
	name, rest := args[0], args[1:]

	var signer *token.Signer
	if cfg.TokenSecret != "" {
		var err error
		signer, err = token.NewSigner([]byte(cfg.TokenSecret))
		if err != nil {
			return err
		}
	}

	if name == "resolve-token" {
		return runResolveToken(signer, rest)
	}
	if name == "commands" {
		return runListCommands()
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	applier := projection.NewApplier()
	store.SetApplier(applier)

	services, err := service.New(store, applier, log.Default(), service.Options{})
	if err != nil {
		return err
	}

	switch name {
	case "create-session":
		result := services.Sessions.CreateSession(ctx)
		if result.Success && signer != nil {
			sessionID, _ := result.Data.(string)
			signed, err := signer.IssueSessionToken(sessionID)
			if err != nil {
				return err
			}
			result.Data = map[string]string{"session_id": sessionID, "token": signed}
		}
		return printResult(result)
	case "end-session":
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		sessionID := fs.String("session", "", "acting session id")
		reason := fs.String("reason", "", "reason the session is ending")
		if err := platformcmd.ParseArgs(fs, rest); err != nil {
			return err
		}
		return printResult(services.Sessions.EndSession(ctx, *sessionID, *reason))
	case "create-user":
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		sessionID := fs.String("session", "", "acting session id")
		userName := fs.String("name", "", "account name")
		email := fs.String("email", "", "contact address")
		if err := platformcmd.ParseArgs(fs, rest); err != nil {
			return err
		}
		return printResult(services.Users.CreateUser(ctx, *sessionID, *userName, *email))
	case "add-password":
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		sessionID := fs.String("session", "", "acting session id")
		userID := fs.String("user", "", "user id")
		plaintext := fs.String("password", "", "plaintext password")
		if err := platformcmd.ParseArgs(fs, rest); err != nil {
			return err
		}
		return printResult(services.Users.AddPasswordAuthentication(ctx, *sessionID, *userID, *plaintext))
	case "deactivate-user":
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		sessionID := fs.String("session", "", "acting session id")
		userID := fs.String("user", "", "user id")
		if err := platformcmd.ParseArgs(fs, rest); err != nil {
			return err
		}
		return printResult(services.Users.DeactivateUser(ctx, *sessionID, *userID))
	case "change-email":
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		sessionID := fs.String("session", "", "acting session id")
		userID := fs.String("user", "", "user id")
		email := fs.String("email", "", "new contact address")
		if err := platformcmd.ParseArgs(fs, rest); err != nil {
			return err
		}
		return printResult(services.Users.ChangeUserEmail(ctx, *sessionID, *userID, *email))
	case "rebuild":
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		sessionID := fs.String("session", "", "acting session id")
		projectionName := fs.String("projection", "all", "projection to rebuild")
		if err := platformcmd.ParseArgs(fs, rest); err != nil {
			return err
		}
		return printResult(services.Rebuild.RebuildProjections(ctx, *sessionID, *projectionName))
	case "get-user":
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		userID := fs.String("user", "", "user id")
		if err := platformcmd.ParseArgs(fs, rest); err != nil {
			return err
		}
		record, err := services.Queries.GetUser(ctx, *userID)
		if err != nil {
			return err
		}
		return printJSON(record)
	case "list-users":
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		limit := fs.Int("limit", 50, "page size")
		offset := fs.Int("offset", 0, "page offset")
		if err := platformcmd.ParseArgs(fs, rest); err != nil {
			return err
		}
		records, err := services.Queries.ListUsers(ctx, *limit, *offset)
		if err != nil {
			return err
		}
		return printJSON(records)
	default:
		return fmt.Errorf("unknown subcommand: %s", name)
	}
}

func runResolveToken(signer *token.Signer, args []string) error {
	if signer == nil {
		return errors.New("USERHUB_TOKEN_SECRET is required for resolve-token")
	}
	fs := flag.NewFlagSet("resolve-token", flag.ContinueOnError)
	raw := fs.String("token", "", "signed session token")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return err
	}
	sessionID, err := signer.ParseSessionToken(*raw)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"session_id": sessionID})
}

func runListCommands() error {
	registry, err := service.NewCommandRegistry()
	if err != nil {
		return err
	}
	type commandInfo struct {
		Type            string `json:"type"`
		RequiresSession bool   `json:"requires_session"`
	}
	infos := make([]commandInfo, 0)
	for _, def := range registry.ListDefinitions() {
		infos = append(infos, commandInfo{Type: string(def.Type), RequiresSession: def.RequiresSession})
	}
	return printJSON(infos)
}

func printResult(result command.Result) error {
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%s: %s", result.ErrorCode, result.ErrorMessage)
	}
	return nil
}

func printJSON(value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
