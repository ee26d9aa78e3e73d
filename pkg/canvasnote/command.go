package canvasnote

// Command represents one discrete application operation with its specific
// configuration. Commands are created by [Parse] and dispatched by [Main]
// to the matching method on [App].
type Command interface {
	// Name returns the CLI sub-command identifier used for routing.
	Name() string
}

// MigrateCommand initializes or updates backend schema. For the PostgreSQL
// backend this runs GORM AutoMigrate over the item, folder and change-log
// tables; SurrealDB needs no schema setup and the in-memory store none at
// all. Safe to run repeatedly.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string { return "migrate" }

// RunCommand starts the HTTP server serving the canvas API against the
// configured backend.
type RunCommand struct{}

func (c *RunCommand) Name() string { return "run" }
