package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/bensuskins/household-hub/internal/config"
	"github.com/bensuskins/household-hub/internal/database"
	"github.com/bensuskins/household-hub/internal/events"
	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/spf13/cobra"
)

type bootstrapOptions struct {
	email     string
	name      string
	household string
	tokenName string
}

// BootstrapResult is the JSON payload of the bootstrap command. Token is
// only ever shown here; the database keeps its hash.
type BootstrapResult struct {
	UserID      string `json:"userId"`
	HouseholdID string `json:"householdId"`
	Token       string `json:"token"`
}

func NewBootstrapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &bootstrapOptions{}

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create a user, a household and an API token",
		Long: `Create the first account without going through the API.

An existing user with the same email is reused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			cfg, err := config.Load()
			if err != nil {
				return formatter.Error(fmt.Errorf("loading config: %w", err))
			}

			db, err := database.Open(cfg.DatabasePath)
			if err != nil {
				return formatter.Error(fmt.Errorf("opening database: %w", err))
			}
			defer db.Close()
			if err := database.Migrate(db); err != nil {
				return formatter.Error(fmt.Errorf("running migrations: %w", err))
			}

			result, err := bootstrap(cmd.Context(), db, opts)
			if err != nil {
				return formatter.Error(err)
			}
			formatter.VerboseLog("created household %s for user %s", result.HouseholdID, result.UserID)
			return formatter.Success(result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "household: %s\ntoken: %s\n", result.HouseholdID, result.Token)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "user email (required)")
	cmd.Flags().StringVar(&opts.name, "name", "", "display name (defaults to the email)")
	cmd.Flags().StringVar(&opts.household, "household", "Zuhause", "household name")
	cmd.Flags().StringVar(&opts.tokenName, "token-name", "bootstrap", "name of the API token")
	cmd.MarkFlagRequired("email")

	return cmd
}

func bootstrap(ctx context.Context, db *sql.DB, opts *bootstrapOptions) (BootstrapResult, error) {
	users := repository.NewUserRepository(db)
	households := repository.NewHouseholdRepository(db)
	tokens := repository.NewAPITokenRepository(db)

	user, err := users.FindByEmail(ctx, opts.email)
	if errors.Is(err, sql.ErrNoRows) {
		name := opts.name
		if name == "" {
			name = opts.email
		}
		user, err = users.Create(ctx, models.User{Email: opts.email, Name: name})
	}
	if err != nil {
		return BootstrapResult{}, fmt.Errorf("finding user: %w", err)
	}

	householdService := services.NewHouseholdService(households, users, events.NewLogPublisher(nil))
	household, err := householdService.Create(ctx, user.ID, opts.household)
	if err != nil {
		return BootstrapResult{}, err
	}

	raw, err := repository.GenerateToken()
	if err != nil {
		return BootstrapResult{}, fmt.Errorf("generating token: %w", err)
	}
	_, err = tokens.Create(ctx, models.APIToken{
		Name:            opts.tokenName,
		TokenHash:       repository.HashToken(raw),
		Scope:           models.ScopeAPI,
		CreatedByUserID: user.ID,
	})
	if err != nil {
		return BootstrapResult{}, fmt.Errorf("creating token: %w", err)
	}

	return BootstrapResult{UserID: user.ID, HouseholdID: household.ID, Token: raw}, nil
}
