package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/suite-exchange/internal/model"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" seller ")
	require.NoError(t, err)
	assert.Equal(t, model.RoleSeller, r)

	_, err = ParseRole("OWNER")
	assert.Error(t, err)
}

func TestAnonymousIsGuest(t *testing.T) {
	id := Anonymous()
	assert.False(t, id.Authenticated())
	assert.Equal(t, model.RoleGuest, id.Role)
	assert.Equal(t, "anonymous", id.String())
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithContext(context.Background(), New(7, model.RoleAdmin))
	got := FromContext(ctx)
	assert.Equal(t, uint64(7), got.UserID)
	assert.True(t, got.Is(model.RoleApprover, model.RoleAdmin))
	assert.False(t, FromContext(context.Background()).Authenticated())
}
