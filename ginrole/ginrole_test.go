package ginrole

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fernandezvara/roles"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	roles map[int64][]roles.Role
	err   error
}

func (s stubLoader) LoadSubjectRoles(_ context.Context, holder roles.RoleHolder) (*roles.SubjectRoles, error) {
	if s.err != nil {
		return nil, s.err
	}
	return roles.NewSubjectRoles(holder.RoleHolderID(), s.roles[holder.RoleHolderID()]), nil
}

func newEngine(loader roles.RoleLoader, tokens ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", Require(loader, FromHeader("X-Subject-ID"), tokens...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"roles": Roles(c).Names()})
	})
	return r
}

func get(r http.Handler, subject string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if subject != "" {
		req.Header.Set("X-Subject-ID", subject)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequire(t *testing.T) {
	loader := stubLoader{roles: map[int64][]roles.Role{
		1: {{ID: 1, Name: "admin"}, {ID: 2, Name: "billing"}},
		2: {{ID: 3, Name: "viewer"}},
	}}

	t.Run("allowed", func(t *testing.T) {
		w := get(newEngine(loader, "required", "admin", "billing"), "1")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"roles":["admin","billing"]}`, w.Body.String())
	})

	t.Run("denied", func(t *testing.T) {
		w := get(newEngine(loader, "required", "admin", "billing"), "2")
		require.Equal(t, http.StatusForbidden, w.Code)

		var body struct {
			Message       string   `json:"message"`
			RequiredRoles []string `json:"required_roles"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "User should have both `admin` and `billing` roles to proceed.", body.Message)
		assert.Equal(t, []string{"admin", "billing"}, body.RequiredRoles)
	})

	t.Run("no subject", func(t *testing.T) {
		w := get(newEngine(loader, "viewer"), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("bad subject header", func(t *testing.T) {
		w := get(newEngine(loader, "viewer"), "abc")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("loader error", func(t *testing.T) {
		w := get(newEngine(stubLoader{err: errors.New("down")}, "viewer"), "1")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestRequirePanicsWithoutRoles(t *testing.T) {
	assert.Panics(t, func() { Require(stubLoader{}, FromHeader("X"), "required") })
}

func TestFromContextKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	resolve := FromContextKey("user_id")
	holder, err := resolve(c)
	require.NoError(t, err)
	assert.Nil(t, holder)

	c.Set("user_id", int64(5))
	holder, err = resolve(c)
	require.NoError(t, err)
	assert.Equal(t, roles.Subject(5), holder)

	c.Set("user_id", "five")
	_, err = resolve(c)
	assert.ErrorIs(t, err, roles.ErrInvalidReference)
}
