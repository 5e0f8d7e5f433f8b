package roles

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/inflection"
)

// Config names the tables and columns used by the Service.
// Resolve it once at startup; the Service never reads configuration per call.
type Config struct {
	// RolesTable stores the roles. Default "roles".
	RolesTable string `mapstructure:"table_name" yaml:"table_name"`

	// PivotTable stores the assignments. Computed from the two table names when empty.
	PivotTable string `mapstructure:"pivot_table" yaml:"pivot_table"`

	// PivotName is accepted as an alias of PivotTable.
	PivotName string `mapstructure:"pivot_name" yaml:"pivot_name"`

	// AssociatedModel labels the subject type in logs. Default "user".
	AssociatedModel string `mapstructure:"associated_model" yaml:"associated_model"`

	// SubjectTable is the host table holding subjects. Default "users".
	SubjectTable string `mapstructure:"associated_model_table_name" yaml:"associated_model_table_name"`

	// SubjectColumn is the pivot column referencing subjects. Default singular(SubjectTable)+"_id".
	SubjectColumn string `mapstructure:"subject_column" yaml:"subject_column"`
}

// RoleColumn is the pivot column referencing roles.
const RoleColumn = "role_id"

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		RolesTable:      "roles",
		AssociatedModel: "user",
		SubjectTable:    "users",
	}
}

var identPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*\.)?[A-Za-z_][A-Za-z0-9_]*$`)

// Resolve fills defaults, derives the pivot table and subject column, and validates names.
func (c Config) Resolve() (Config, error) {
	if c.RolesTable == "" {
		c.RolesTable = "roles"
	}
	if c.SubjectTable == "" {
		c.SubjectTable = "users"
	}
	if c.AssociatedModel == "" {
		c.AssociatedModel = inflection.Singular(baseName(c.SubjectTable))
	}
	if c.PivotTable == "" {
		c.PivotTable = c.PivotName
	}
	if c.PivotTable == "" {
		c.PivotTable = PivotTableName(c.RolesTable, c.SubjectTable)
	}
	c.PivotName = c.PivotTable
	if c.SubjectColumn == "" {
		c.SubjectColumn = inflection.Singular(baseName(c.SubjectTable)) + "_id"
	}

	for _, ident := range []struct{ key, value string }{
		{"table_name", c.RolesTable},
		{"pivot_table", c.PivotTable},
		{"associated_model_table_name", c.SubjectTable},
		{"subject_column", c.SubjectColumn},
	} {
		if !identPattern.MatchString(ident.value) {
			return Config{}, NewError(ErrInvalidConfig, fmt.Sprintf("%s %q is not a valid SQL identifier", ident.key, ident.value))
		}
	}
	if strings.Contains(c.SubjectColumn, ".") {
		return Config{}, NewError(ErrInvalidConfig, "subject_column must not be schema qualified")
	}
	if c.SubjectColumn == RoleColumn {
		return Config{}, NewError(ErrInvalidConfig, "subject_column must differ from "+RoleColumn)
	}

	return c, nil
}

// PivotTableName derives the assignment table from the two table names:
// sorted alphabetically, singularized and joined with "_" ("roles", "users" -> "role_user").
func PivotTableName(rolesTable, subjectTable string) string {
	names := []string{baseName(rolesTable), baseName(subjectTable)}
	sort.Strings(names)
	return inflection.Singular(names[0]) + "_" + inflection.Singular(names[1])
}

func baseName(table string) string {
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		return table[i+1:]
	}
	return table
}

// PoolConfig holds connection pool settings applied with ConfigureConnectionPool.
type PoolConfig struct {
	MaxOpenConnections    int           `mapstructure:"max_open_connections" yaml:"max_open_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections" yaml:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime" yaml:"connection_max_lifetime"`
	ConnectionMaxIdleTime time.Duration `mapstructure:"connection_max_idle_time" yaml:"connection_max_idle_time"`
}

// DefaultPoolConfig returns conservative pool settings.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConnections:    25,
		MaxIdleConnections:    5,
		ConnectionMaxLifetime: 30 * time.Minute,
		ConnectionMaxIdleTime: 5 * time.Minute,
	}
}
