package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/filemill/internal/idgen"
	"github.com/dmitrijs2005/filemill/internal/users"
)

func TestManager_CreateGetRemove(t *testing.T) {
	us := users.NewService(users.NewMemoryRepository(), idgen.NewGenerator(idgen.NewMemoryRepository()))
	m := NewManager(us)

	id, gate := m.Create()
	require.NotEmpty(t, id)
	require.NotNil(t, gate)

	got, ok := m.Get(id)
	require.True(t, ok)
	assert.Same(t, gate, got)

	m.Remove(id)
	_, ok = m.Get(id)
	assert.False(t, ok)
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	us := users.NewService(users.NewMemoryRepository(), idgen.NewGenerator(idgen.NewMemoryRepository()))
	_, err := us.AddUser(ctx, "a@example.com", "long-enough-password", false)
	require.NoError(t, err)

	m := NewManager(us)
	id1, g1 := m.Create()
	id2, g2 := m.Create()
	require.NotEqual(t, id1, id2)

	require.NoError(t, g1.Login(ctx, "a@example.com", "long-enough-password"))
	assert.NoError(t, g1.RequireLoggedIn())
	assert.Error(t, g2.RequireLoggedIn())
}
