// Package roles assigns named roles to subjects and gates HTTP routes on them.
//
// A subject is any row of a host-owned table (users by default). Roles live in
// their own table and assignments in a pivot table whose name is derived from
// the two table names unless configured.
//
// # Core Concepts
//
// Role: A row with a unique name, referenced by id, by name or through a loaded
// Role value. RoleRef is the tagged union covering those cases plus lists.
//
// RoleHolder: Anything with a subject id. Subject(42) is the simplest one.
//
// Requirement: The roles a route needs. A leading "required" token means the
// subject must hold all of them; otherwise any one is enough.
//
// # Basic Usage
//
//	// 1. Create the service
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service, err := roles.NewService(db, roles.DefaultConfig(),
//	    roles.WithServiceLogger(logger),
//	)
//
//	// 2. Run migrations (the users table must already exist)
//	err = service.RunMigrations(ctx)
//
//	// 3. Create roles
//	_, err = service.Create(ctx, "admin", "editor", "viewer")
//
//	// 4. Assign roles
//	err = service.AssignRoles(ctx, roles.Subject(userID), roles.Names("editor", "viewer")...)
//
//	// 5. Check roles
//	ok, err := service.HasAnyRole(ctx, roles.Subject(userID), roles.Name("admin"), roles.Name("editor"))
//
// # Middleware Usage
//
//	mw := roles.NewMiddleware(service)
//
//	// Any of the roles
//	router.With(mw.Require("admin", "editor")).Post("/articles", createArticle)
//
//	// All of the roles
//	router.With(mw.Require("required", "admin", "billing")).Post("/invoices", createInvoice)
//
// Denied requests get a 403 whose body names the missing roles, for example
// "User should have either `admin` or `editor` role to proceed."
//
// # Configuration
//
// Config keys match the mapstructure tags so the struct can be filled by viper:
// table_name, pivot_table (or pivot_name), associated_model,
// associated_model_table_name and subject_column.
package roles
