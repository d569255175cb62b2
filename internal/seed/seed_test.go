package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
)

type upserterMock struct {
	byUsername map[string]*models.Admin
}

func (m *upserterMock) Upsert(ctx context.Context, admin *models.Admin) (bool, error) {
	if m.byUsername == nil {
		m.byUsername = make(map[string]*models.Admin)
	}
	if _, ok := m.byUsername[admin.Username]; ok {
		return false, nil
	}
	m.byUsername[admin.Username] = admin
	return true, nil
}

func TestAdminsSeedsFixedAccounts(t *testing.T) {
	repo := &upserterMock{}

	err := Admins(context.Background(), repo, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, repo.byUsername, 3)
	for username, password := range map[string]string{
		"admin1": "password1",
		"admin2": "password2",
		"admin3": "password3",
	} {
		admin, ok := repo.byUsername[username]
		require.True(t, ok, username)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)))
	}
}

func TestAdminsIsIdempotent(t *testing.T) {
	repo := &upserterMock{}

	require.NoError(t, Admins(context.Background(), repo, zap.NewNop()))
	require.NoError(t, Admins(context.Background(), repo, zap.NewNop()))
	assert.Len(t, repo.byUsername, 3)
}
