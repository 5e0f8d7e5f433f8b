package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleRefConstructors(t *testing.T) {
	assert.Equal(t, RefByID, ID(3).Kind())
	assert.Equal(t, RefByName, Name("admin").Kind())
	assert.Equal(t, RefByRole, Of(Role{ID: 1, Name: "admin"}).Kind())
	assert.Equal(t, RefByList, List(ID(1)).Kind())

	var zero RoleRef
	assert.False(t, zero.IsValid())
	assert.True(t, Name("x").IsValid())
	assert.Equal(t, "<invalid>", zero.String())
}

func TestParseRef(t *testing.T) {
	assert.Equal(t, ID(42), ParseRef("42"))
	assert.Equal(t, Name("admin"), ParseRef("admin"))
	assert.Equal(t, Name("0"), ParseRef("0"))
	assert.Equal(t, Name("-3"), ParseRef("-3"))
	assert.Equal(t, Name("12abc"), ParseRef("12abc"))
}

func TestRoleRefString(t *testing.T) {
	ref := List(ID(1), Name("editor"), List(Of(Role{ID: 9, Name: "viewer"})))
	assert.Equal(t, "[#1, editor, [viewer]]", ref.String())
}

func TestFlatten(t *testing.T) {
	refs := Flatten(Name("a"), List(ID(2), List(Name("c"))), Name("d"))
	assert.Equal(t, []RoleRef{Name("a"), ID(2), Name("c"), Name("d")}, refs)

	assert.Empty(t, Flatten())
	assert.Empty(t, Flatten(List()))
}

func TestNamesAndIDs(t *testing.T) {
	assert.Equal(t, []RoleRef{Name("a"), Name("b")}, Names("a", "b"))
	assert.Equal(t, []RoleRef{ID(1), ID(2)}, IDs(1, 2))
}
