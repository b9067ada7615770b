package cli

import (
	"context"
	"testing"

	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/bensuskins/household-hub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	ctx := context.Background()
	opts := &bootstrapOptions{email: "Ana@Example.com", household: "Zuhause", tokenName: "cli"}

	first, err := bootstrap(ctx, db, opts)
	require.NoError(t, err)
	require.NotEmpty(t, first.Token)

	token, err := repository.NewAPITokenRepository(db).FindByTokenHash(ctx, repository.HashToken(first.Token))
	require.NoError(t, err)
	assert.Equal(t, models.ScopeAPI, token.Scope)
	assert.Equal(t, first.UserID, token.CreatedByUserID)

	membership, err := repository.NewHouseholdRepository(db).FindMembership(ctx, first.HouseholdID, first.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, membership.Role)

	second, err := bootstrap(ctx, db, opts)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
	assert.NotEqual(t, first.HouseholdID, second.HouseholdID)
	assert.NotEqual(t, first.Token, second.Token)
}
