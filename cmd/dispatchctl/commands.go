package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	config "github.com/maheshrc27/creatortask/configs"
	"github.com/maheshrc27/creatortask/internal/events"
	"github.com/maheshrc27/creatortask/internal/publisher"
	"github.com/maheshrc27/creatortask/internal/repository"
	"github.com/maheshrc27/creatortask/internal/service"
	"github.com/maheshrc27/creatortask/internal/storage"
	"github.com/maheshrc27/creatortask/internal/transfer"
	"github.com/maheshrc27/creatortask/migrations"
	"github.com/maheshrc27/creatortask/pkg/utils"
)

// Flag names are unique across commands; cobraflags binds them by name.
const (
	cycleTimeoutFlag   = "cycle-timeout"
	requestTimeoutFlag = "request-timeout"
	urlFlag            = "url"
	secretFlag         = "secret"
	directionFlag      = "direction"
	lengthFlag         = "length"
	userIDFlag         = "user-id"
	ttlFlag            = "ttl"
)

func newRunCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		cycleTimeoutFlag: &cobraflags.DurationFlag{
			Name:  cycleTimeoutFlag,
			Value: 10 * time.Minute,
			Usage: "Maximum time to wait for due posts to be claimed",
		},
	}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one dispatch cycle in-process",
		Long: `Run one dispatch cycle against the configured database, the same way the
trigger endpoint does, and print the cycle result.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd, flags[cycleTimeoutFlag].GetDuration())
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newTriggerCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		urlFlag: &cobraflags.StringFlag{
			Name:  urlFlag,
			Value: "http://localhost:3000/api/process-scheduled-posts",
			Usage: "Dispatch trigger endpoint",
		},
		secretFlag: &cobraflags.StringFlag{
			Name:  secretFlag,
			Value: "",
			Usage: "Bearer secret (defaults to CRON_SECRET)",
		},
		requestTimeoutFlag: &cobraflags.DurationFlag{
			Name:  requestTimeoutFlag,
			Value: 5 * time.Minute,
			Usage: "HTTP request timeout",
		},
	}
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Call the dispatch trigger endpoint of a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return triggerCommand(cmd,
				flags[urlFlag].GetString(),
				flags[secretFlag].GetString(),
				flags[requestTimeoutFlag].GetDuration())
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newReleaseStaleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "release-stale",
		Short: "Fail posts stuck in publishing longer than STALE_CLAIM_AFTER",
		RunE:  releaseStaleCommand,
	}
}

func newMigrateCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		directionFlag: &cobraflags.StringFlag{
			Name:  directionFlag,
			Value: "up",
			Usage: "Migration direction (up, down)",
		},
	}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrateCommand(cmd, flags[directionFlag].GetString())
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newGenSecretCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		lengthFlag: &cobraflags.IntFlag{
			Name:  lengthFlag,
			Value: 32,
			Usage: "Number of random bytes",
		},
	}
	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Generate a random value for CRON_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return genSecretCommand(cmd, flags[lengthFlag].GetInt())
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newEncryptTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt-token <access-token>",
		Short: "Encrypt a platform access token with TOKEN_ENCRYPTION_KEY",
		Long: `Encrypt a platform access token the way social_accounts.access_token is
stored, for seeding accounts linked outside the composer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return encryptTokenCommand(cmd, os.Getenv("TOKEN_ENCRYPTION_KEY"), args[0])
		},
	}
}

func newIssueTokenCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		userIDFlag: &cobraflags.StringFlag{
			Name:  userIDFlag,
			Value: "",
			Usage: "User the token acts as (required)",
		},
		ttlFlag: &cobraflags.DurationFlag{
			Name:  ttlFlag,
			Value: time.Hour,
			Usage: "Token lifetime",
		},
	}
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Issue a bearer token for the posts API, signed with SECRET_KEY",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return issueTokenCommand(cmd, os.Getenv("SECRET_KEY"),
				flags[userIDFlag].GetString(), flags[ttlFlag].GetDuration())
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func runCommand(cmd *cobra.Command, timeout time.Duration) error {
	cfg := config.LoadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	media, err := storage.New(cmd.Context(), cfg.R2)
	if err != nil {
		return err
	}

	historyRepo := repository.NewPostingHistoryRepository(db)
	dispatch := service.NewDispatchService(
		repository.NewPostRepository(db),
		repository.NewSocialAccountRepository(db, cfg.TokenEncryptionKey),
		historyRepo,
		publisher.NewPlatformRegistry(cfg, media),
		events.NoopPublisher{},
		cfg.Dispatch,
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	result, cycleErr := dispatch.RunCycle(ctx, time.Now().UTC())
	if result != nil {
		if err := printJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}
	return cycleErr
}

func triggerCommand(cmd *cobra.Command, url, secret string, timeout time.Duration) error {
	if secret == "" {
		secret = os.Getenv("CRON_SECRET")
	}

	client := &http.Client{Timeout: timeout}
	resp, err := trigger(cmd.Context(), client, url, secret)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

// trigger calls the dispatch endpoint the way an external scheduler would.
func trigger(ctx context.Context, client *http.Client, url, secret string) (*transfer.DispatchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var errResp transfer.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("dispatch trigger returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("dispatch trigger returned %d", resp.StatusCode)
	}

	var out transfer.DispatchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode dispatch response: %w", err)
	}
	return &out, nil
}

func releaseStaleCommand(cmd *cobra.Command, _ []string) error {
	cfg := config.LoadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	dispatch := service.NewDispatchService(repository.NewPostRepository(db), nil, nil, publisher.NewRegistry(), nil, cfg.Dispatch)
	n, err := dispatch.ReleaseStaleClaims(cmd.Context(), time.Now().UTC())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "released %d stale claims\n", n)
	return nil
}

func migrateCommand(cmd *cobra.Command, direction string) error {
	direction = strings.ToLower(direction)
	if direction != "up" && direction != "down" {
		return errors.New("--direction must be up or down")
	}

	cfg := config.LoadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := migrations.Apply(cmd.Context(), db, migrations.FS(), direction)
	if err != nil {
		return err
	}
	for _, name := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
	}
	return nil
}

func genSecretCommand(cmd *cobra.Command, length int) error {
	if length < 16 {
		return fmt.Errorf("--%s must be at least 16", lengthFlag)
	}

	secret, err := utils.GenerateRandomKey(length)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), secret)
	return nil
}

func encryptTokenCommand(cmd *cobra.Command, key, token string) error {
	if key == "" {
		return errors.New("TOKEN_ENCRYPTION_KEY is not set")
	}
	sealed, err := utils.Encrypt([]byte(token), []byte(key))
	if err != nil {
		return fmt.Errorf("encrypt token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), sealed)
	return nil
}

func issueTokenCommand(cmd *cobra.Command, secretKey, userID string, ttl time.Duration) error {
	if secretKey == "" {
		return errors.New("SECRET_KEY is not set")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return fmt.Errorf("--%s must be a user uuid", userIDFlag)
	}
	token, err := utils.GenerateToken(secretKey, userID, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	if cfg.PostgresURI == "" {
		return nil, errors.New("POSTGRES_URI is not set")
	}
	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}
	return db, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
