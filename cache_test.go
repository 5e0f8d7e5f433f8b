package roles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleCache(t *testing.T) {
	rc := newRoleCache(time.Minute)
	sr := NewSubjectRoles(5, []Role{{ID: 1, Name: "admin"}})

	_, ok := rc.get(5)
	assert.False(t, ok)

	rc.set(sr)
	got, ok := rc.get(5)
	require.True(t, ok)
	assert.Same(t, sr, got)

	rc.invalidate(5)
	_, ok = rc.get(5)
	assert.False(t, ok)

	rc.set(sr)
	rc.set(NewSubjectRoles(6, nil))
	rc.flush()
	_, ok = rc.get(5)
	assert.False(t, ok)
	_, ok = rc.get(6)
	assert.False(t, ok)
}

func TestRoleCacheExpires(t *testing.T) {
	rc := newRoleCache(20 * time.Millisecond)
	rc.set(NewSubjectRoles(5, nil))

	assert.Eventually(t, func() bool {
		_, ok := rc.get(5)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestNilRoleCacheIsSafe(t *testing.T) {
	var rc *roleCache
	assert.NotPanics(t, func() {
		rc.set(NewSubjectRoles(1, nil))
		rc.invalidate(1)
		rc.flush()
		_, ok := rc.get(1)
		assert.False(t, ok)
	})
}

func TestPendingInvalidations(t *testing.T) {
	service, err := NewService(nil, DefaultConfig(), WithRoleCache(time.Minute))
	require.NoError(t, err)

	service.cache.set(NewSubjectRoles(1, nil))
	service.cache.set(NewSubjectRoles(2, nil))

	pending := &pendingInvalidations{}
	tx := service.withDB(nil, pending)

	tx.invalidate(1)
	_, ok := service.cache.get(1)
	assert.True(t, ok, "invalidation is deferred until commit")

	pending.apply(service)
	_, ok = service.cache.get(1)
	assert.False(t, ok)
	_, ok = service.cache.get(2)
	assert.True(t, ok)

	pending = &pendingInvalidations{}
	tx = service.withDB(nil, pending)
	tx.invalidateAll()
	pending.apply(service)
	_, ok = service.cache.get(2)
	assert.False(t, ok)
}
