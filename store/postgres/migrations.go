package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Steward store (PostgreSQL).
var Migrations = migrate.NewGroup("steward")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_audit_log",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS steward_audit_log (
    id              TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL,
    actor           TEXT NOT NULL,
    change_type     TEXT NOT NULL,
    entity_type     TEXT NOT NULL,
    entity_name     TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    statements      JSONB NOT NULL DEFAULT '[]',
    before_state    JSONB,
    after_state     JSONB,
    success         BOOLEAN NOT NULL,
    error_message   TEXT NOT NULL DEFAULT '',

    PRIMARY KEY (created_at, actor, id)
) PARTITION BY RANGE (created_at);

CREATE TABLE IF NOT EXISTS steward_audit_log_default
    PARTITION OF steward_audit_log DEFAULT;

CREATE INDEX IF NOT EXISTS idx_steward_audit_id ON steward_audit_log (id);
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
		&migrate.Migration{
			Name:    "create_audit_log_monthly_partitions",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DO $$
DECLARE
    m DATE;
BEGIN
    FOR i IN 0..24 LOOP
        m := date_trunc('month', now())::date + make_interval(months => i);
        EXECUTE format(
            'CREATE TABLE IF NOT EXISTS %I PARTITION OF steward_audit_log FOR VALUES FROM (%L) TO (%L)',
            'steward_audit_log_' || to_char(m, 'YYYYMM'),
            m,
            m + interval '1 month'
        );
    END LOOP;
END $$;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DO $$
DECLARE
    t TEXT;
BEGIN
    FOR t IN SELECT inhrelid::regclass::text FROM pg_inherits
             WHERE inhparent = 'steward_audit_log'::regclass
               AND inhrelid::regclass::text <> 'steward_audit_log_default'
    LOOP
        EXECUTE format('DROP TABLE IF EXISTS %I', t);
    END LOOP;
END $$;
`)
				return err
			},
		},
	)
}
