package roles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAssignRolesDatabase tests assignment against a real database
func TestAssignRolesDatabase(t *testing.T) {
	h := newTestHelper(t)
	if h == nil {
		return
	}
	service, ctx := h.service, h.ctx
	created := h.createRoles("admin", "editor", "viewer")
	admin, editor, viewer := created[0], created[1], created[2]

	t.Run("assign by every reference kind", func(t *testing.T) {
		user := h.createUser()
		require.NoError(t, service.AssignRoles(ctx, user, ID(admin.ID), Name(editor.Name), Of(viewer)))
		h.assertRoleNames(user, admin.Name, editor.Name, viewer.Name)
	})

	t.Run("assign is idempotent", func(t *testing.T) {
		user := h.createUser()
		require.NoError(t, service.AssignRoles(ctx, user, Name(admin.Name)))
		require.NoError(t, service.AssignRoles(ctx, user, Name(admin.Name), List(ID(admin.ID))))
		h.assertRoleNames(user, admin.Name)
	})

	t.Run("unknown role assigns nothing", func(t *testing.T) {
		user := h.createUser()
		err := service.AssignRoles(ctx, user, Name(admin.Name), Name(h.roleName("ghost")))
		assert.True(t, IsRoleNotFound(err))
		h.assertRoleNames(user)
	})

	t.Run("stale role value is rejected", func(t *testing.T) {
		gone := h.createRoles("gone")[0]
		require.NoError(t, service.DeleteRole(ctx, Of(gone)))

		err := service.AssignRoles(ctx, h.createUser(), Of(gone))
		assert.True(t, IsRoleNotFound(err))
	})

	t.Run("missing subject", func(t *testing.T) {
		err := service.AssignRoles(ctx, Subject(-42), Of(admin))
		assert.ErrorIs(t, err, ErrSubjectNotFound)
	})
}

// TestRevokeAndSyncDatabase tests revoke and sync semantics
func TestRevokeAndSyncDatabase(t *testing.T) {
	h := newTestHelper(t)
	if h == nil {
		return
	}
	service, ctx := h.service, h.ctx
	created := h.createRoles("a", "b", "c")
	a, b, c := created[0], created[1], created[2]

	t.Run("revoke", func(t *testing.T) {
		user := h.createUser()
		require.NoError(t, service.AssignRoles(ctx, user, Of(a), Of(b)))
		require.NoError(t, service.RevokeRoles(ctx, user, Of(a)))
		h.assertRoleNames(user, b.Name)

		// not held is a no-op
		require.NoError(t, service.RevokeRoles(ctx, user, Of(c)))
		h.assertRoleNames(user, b.Name)

		err := service.RevokeRoles(ctx, user, Name(h.roleName("ghost")))
		assert.True(t, IsRoleNotFound(err))
	})

	t.Run("sync replaces the set", func(t *testing.T) {
		user := h.createUser()
		require.NoError(t, service.AssignRoles(ctx, user, Of(a), Of(b)))
		require.NoError(t, service.SyncRoles(ctx, user, Of(b), Of(c)))
		h.assertRoleNames(user, b.Name, c.Name)
	})

	t.Run("sync with an unknown role rolls back", func(t *testing.T) {
		user := h.createUser()
		require.NoError(t, service.AssignRoles(ctx, user, Of(a)))

		err := service.SyncRoles(ctx, user, Of(b), Name(h.roleName("ghost")))
		assert.True(t, IsRoleNotFound(err))
		h.assertRoleNames(user, a.Name)
	})

	t.Run("revoke all", func(t *testing.T) {
		user := h.createUser()
		require.NoError(t, service.AssignRoles(ctx, user, Of(a), Of(c)))
		require.NoError(t, service.RevokeAllRoles(ctx, user))
		h.assertRoleNames(user)
	})
}

// TestSubjectQueriesDatabase tests the read side of the subject API
func TestSubjectQueriesDatabase(t *testing.T) {
	h := newTestHelper(t)
	if h == nil {
		return
	}
	service, ctx := h.service, h.ctx
	created := h.createRoles("admin", "editor", "viewer")
	admin, editor, viewer := created[0], created[1], created[2]

	user := h.createUser()
	other := h.createUser()
	require.NoError(t, service.AssignRoles(ctx, user, Of(editor), Of(admin)))
	require.NoError(t, service.AssignRoles(ctx, other, Of(viewer), Of(admin)))

	ok, err := service.HasRole(ctx, user, Name(admin.Name))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = service.HasRole(ctx, user, List(Name(viewer.Name), ID(editor.ID)))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = service.HasAnyRole(ctx, user, Name(viewer.Name))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = service.HasAllRoles(ctx, user, Name(admin.Name), Of(editor))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = service.Is(ctx, user, editor.Name)
	require.NoError(t, err)
	assert.True(t, ok)

	held, err := service.GetRoles(ctx, user)
	require.NoError(t, err)
	require.Len(t, held, 2)
	assert.Equal(t, admin.ID, held[0].ID, "ordered by role id")

	ids, err := service.SubjectIDsWithRole(ctx, Name(admin.Name))
	require.NoError(t, err)
	assert.Equal(t, []int64{int64(user), int64(other)}, ids)

	ids, err = service.SubjectIDsWithRole(ctx, ID(viewer.ID), Name(editor.Name))
	require.NoError(t, err)
	assert.Equal(t, []int64{int64(user), int64(other)}, ids)

	ids, err = service.SubjectIDsWithRole(ctx, Name(h.roleName("nobody")))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

// TestRoleCacheDatabase tests that mutations through the service invalidate cached roles
func TestRoleCacheDatabase(t *testing.T) {
	h := newTestHelper(t, WithRoleCache(time.Hour))
	if h == nil {
		return
	}
	service, ctx := h.service, h.ctx
	created := h.createRoles("cached", "added")

	user := h.createUser()
	require.NoError(t, service.AssignRoles(ctx, user, Of(created[0])))
	h.assertRoleNames(user, created[0].Name)

	require.NoError(t, service.AssignRoles(ctx, user, Of(created[1])))
	h.assertRoleNames(user, created[0].Name, created[1].Name)

	require.NoError(t, service.DeleteRole(ctx, Of(created[0])))
	h.assertRoleNames(user, created[1].Name)
}
