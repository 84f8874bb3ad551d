package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Steward store (SQLite).
var Migrations = migrate.NewGroup("steward")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_audit_log",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS steward_audit_log (
    id              TEXT PRIMARY KEY,
    created_at      TEXT NOT NULL,
    actor           TEXT NOT NULL,
    change_type     TEXT NOT NULL,
    entity_type     TEXT NOT NULL,
    entity_name     TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    statements      TEXT NOT NULL DEFAULT '[]',
    before_state    TEXT NOT NULL DEFAULT '',
    after_state     TEXT NOT NULL DEFAULT '',
    success         INTEGER NOT NULL,
    error_message   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_steward_audit_time_actor ON steward_audit_log (created_at, actor);
CREATE INDEX IF NOT EXISTS idx_steward_audit_entity ON steward_audit_log (entity_type, entity_name);
CREATE INDEX IF NOT EXISTS idx_steward_audit_success ON steward_audit_log (success, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS steward_audit_log`)
				return err
			},
		},
	)
}
