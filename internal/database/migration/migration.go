package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_providers",
		SQL: `CREATE TABLE IF NOT EXISTS providers (
  id           UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  name         TEXT             NOT NULL UNIQUE,
  active       BOOLEAN          NOT NULL DEFAULT TRUE,
  healthy      BOOLEAN          NOT NULL DEFAULT TRUE,
  success_rate DOUBLE PRECISION NOT NULL CHECK (success_rate >= 0 AND success_rate <= 1),
  fee_rate     DOUBLE PRECISION NOT NULL CHECK (fee_rate >= 0),
  fee_fixed    BIGINT           NOT NULL DEFAULT 0 CHECK (fee_fixed >= 0),
  latency_ms   DOUBLE PRECISION NOT NULL DEFAULT 0,
  currencies   TEXT[]           NOT NULL DEFAULT '{}',
  regions      TEXT[]           NOT NULL DEFAULT '{}',
  priority     INTEGER          NOT NULL DEFAULT 100,
  endpoint     TEXT             NOT NULL DEFAULT '',
  created_at   TIMESTAMPTZ      NOT NULL DEFAULT now(),
  updated_at   TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_providers_active",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_providers_active ON providers (active);`,
	},
	{
		Name: "create_table_channels",
		SQL: `CREATE TABLE IF NOT EXISTS channels (
  id           UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  kind         TEXT             NOT NULL CHECK (kind IN ('email','sms','push','webhook')),
  name         TEXT             NOT NULL UNIQUE,
  active       BOOLEAN          NOT NULL DEFAULT TRUE,
  healthy      BOOLEAN          NOT NULL DEFAULT TRUE,
  success_rate DOUBLE PRECISION NOT NULL CHECK (success_rate >= 0 AND success_rate <= 1),
  cost_per_msg DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (cost_per_msg >= 0),
  latency_ms   DOUBLE PRECISION NOT NULL DEFAULT 0,
  min_urgency  INTEGER          NOT NULL DEFAULT 0,
  intrusive    BOOLEAN          NOT NULL DEFAULT FALSE,
  priority     INTEGER          NOT NULL DEFAULT 100,
  endpoint     TEXT             NOT NULL DEFAULT '',
  created_at   TIMESTAMPTZ      NOT NULL DEFAULT now(),
  updated_at   TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_channels_active",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_channels_active ON channels (active);`,
	},
	{
		Name: "create_table_route_decisions",
		SQL: `CREATE TABLE IF NOT EXISTS route_decisions (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  kind       TEXT        NOT NULL CHECK (kind IN ('payment','notification')),
  request    JSONB       NOT NULL,
  ranked     JSONB       NOT NULL DEFAULT '[]',
  attempts   JSONB       NOT NULL DEFAULT '[]',
  winner     TEXT        NOT NULL DEFAULT '',
  succeeded  BOOLEAN     NOT NULL DEFAULT FALSE,
  trace_path TEXT        NOT NULL DEFAULT '',
  latency_ms BIGINT      NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_route_decisions_kind_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_route_decisions_kind_created_at ON route_decisions (kind, created_at DESC);`,
	},
	{
		Name: "create_table_search_documents",
		SQL: `CREATE TABLE IF NOT EXISTS search_documents (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title      TEXT        NOT NULL,
  content    TEXT        NOT NULL,
  source     TEXT        NOT NULL DEFAULT '',
  tags       TEXT[]      NOT NULL DEFAULT '{}',
  tsv        TSVECTOR    GENERATED ALWAYS AS (to_tsvector('english', title || ' ' || content)) STORED,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_search_documents_tsv",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_search_documents_tsv ON search_documents USING GIN (tsv);`,
	},
	{
		Name: "create_table_search_vectors",
		SQL: `CREATE TABLE IF NOT EXISTS search_vectors (
  document_id UUID    PRIMARY KEY REFERENCES search_documents(id) ON DELETE CASCADE,
  embedding   BYTEA   NOT NULL,
  dimensions  INTEGER NOT NULL
);`,
	},
}

// EnsureMigrated checks if the 'providers' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.providers') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
