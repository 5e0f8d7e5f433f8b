package roles

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// roleCache keeps loaded SubjectRoles between calls in this process.
// Every mutation issued through the Service invalidates the affected entries.
type roleCache struct {
	c *gocache.Cache
}

func newRoleCache(ttl time.Duration) *roleCache {
	return &roleCache{c: gocache.New(ttl, time.Minute)}
}

func subjectKey(subjectID int64) string {
	return "subject:" + strconv.FormatInt(subjectID, 10)
}

func (rc *roleCache) get(subjectID int64) (*SubjectRoles, bool) {
	if rc == nil {
		return nil, false
	}
	v, ok := rc.c.Get(subjectKey(subjectID))
	if !ok {
		return nil, false
	}
	sr, ok := v.(*SubjectRoles)
	return sr, ok
}

func (rc *roleCache) set(sr *SubjectRoles) {
	if rc == nil {
		return
	}
	rc.c.SetDefault(subjectKey(sr.SubjectID), sr)
}

func (rc *roleCache) invalidate(subjectID int64) {
	if rc == nil {
		return
	}
	rc.c.Delete(subjectKey(subjectID))
}

// flush drops every entry; used when a role row disappears.
func (rc *roleCache) flush() {
	if rc == nil {
		return
	}
	rc.c.Flush()
}
