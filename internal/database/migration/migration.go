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
		Name: "create_table_document_types",
		SQL: `CREATE TABLE IF NOT EXISTS document_types (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name        TEXT        NOT NULL UNIQUE,
  description TEXT        NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_by  TEXT        NOT NULL DEFAULT 'system',
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_by  TEXT        NOT NULL DEFAULT 'system'
);`,
	},
	{
		Name: "create_table_document_specifications",
		SQL: `CREATE TABLE IF NOT EXISTS document_specifications (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name       TEXT        NOT NULL,
  version    TEXT        NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_by TEXT        NOT NULL DEFAULT 'system',
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_by TEXT        NOT NULL DEFAULT 'system'
);`,
	},
	{
		Name: "create_table_supported_mime_types",
		SQL: `CREATE TABLE IF NOT EXISTS supported_mime_types (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name       TEXT        NOT NULL UNIQUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_by TEXT        NOT NULL DEFAULT 'system',
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_by TEXT        NOT NULL DEFAULT 'system'
);`,
	},
	{
		Name: "create_table_channels",
		SQL: `CREATE TABLE IF NOT EXISTS channels (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name       TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_by TEXT        NOT NULL DEFAULT 'system',
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_by TEXT        NOT NULL DEFAULT 'system'
);`,
	},
	{
		Name: "create_table_categories",
		SQL: `CREATE TABLE IF NOT EXISTS categories (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name       TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_by TEXT        NOT NULL DEFAULT 'system',
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_by TEXT        NOT NULL DEFAULT 'system'
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id               UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name             TEXT        NOT NULL,
  description      TEXT        NOT NULL DEFAULT '',
  lifecycle_state  TEXT        NOT NULL DEFAULT 'DRAFT',
  version          TEXT        NOT NULL DEFAULT '',
  tags             TEXT        NOT NULL DEFAULT '',
  modified_count   BIGINT      NOT NULL DEFAULT 0 CHECK (modified_count >= 0),
  type_id          UUID        NOT NULL REFERENCES document_types (id),
  specification_id UUID        REFERENCES document_specifications (id),
  channel_id       UUID        NOT NULL REFERENCES channels (id),
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_by       TEXT        NOT NULL DEFAULT 'system',
  updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_by       TEXT        NOT NULL DEFAULT 'system'
);`,
	},
	{
		Name: "create_table_attachments",
		SQL: `CREATE TABLE IF NOT EXISTS attachments (
  id                UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id       UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  name              TEXT        NOT NULL,
  description       TEXT        NOT NULL DEFAULT '',
  mime_type_id      UUID        NOT NULL REFERENCES supported_mime_types (id),
  original_filename TEXT        NOT NULL,
  size              BIGINT      NOT NULL DEFAULT 0 CHECK (size >= 0),
  size_unit         TEXT        NOT NULL DEFAULT '',
  storage_backend   TEXT        NOT NULL DEFAULT '',
  external_url      TEXT        NOT NULL DEFAULT '',
  uploaded          BOOLEAN     NOT NULL DEFAULT false,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_by        TEXT        NOT NULL DEFAULT 'system',
  updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_by        TEXT        NOT NULL DEFAULT 'system'
);`,
	},
	{
		Name: "create_table_document_relationships",
		SQL: `CREATE TABLE IF NOT EXISTS document_relationships (
  id                 UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id        UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  relationship_type  TEXT        NOT NULL,
  target_document_id UUID        NOT NULL,
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_by         TEXT        NOT NULL DEFAULT 'system',
  updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_by         TEXT        NOT NULL DEFAULT 'system'
);`,
	},
	{
		Name: "create_table_document_characteristics",
		SQL: `CREATE TABLE IF NOT EXISTS document_characteristics (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  name        TEXT        NOT NULL,
  value       TEXT        NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_by  TEXT        NOT NULL DEFAULT 'system',
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_by  TEXT        NOT NULL DEFAULT 'system'
);`,
	},
	{
		Name: "create_table_related_party_refs",
		SQL: `CREATE TABLE IF NOT EXISTS related_party_refs (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  name        TEXT        NOT NULL,
  role        TEXT        NOT NULL DEFAULT '',
  href        TEXT        NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_by  TEXT        NOT NULL DEFAULT 'system',
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_by  TEXT        NOT NULL DEFAULT 'system'
);`,
	},
	{
		Name: "create_table_related_object_refs",
		SQL: `CREATE TABLE IF NOT EXISTS related_object_refs (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id UUID        NOT NULL UNIQUE REFERENCES documents (id) ON DELETE CASCADE,
  involvement TEXT        NOT NULL DEFAULT '',
  ref_id      TEXT        NOT NULL DEFAULT '',
  ref_type    TEXT        NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_by  TEXT        NOT NULL DEFAULT 'system',
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_by  TEXT        NOT NULL DEFAULT 'system'
);`,
	},
	{
		Name: "create_table_document_categories",
		SQL: `CREATE TABLE IF NOT EXISTS document_categories (
  document_id UUID NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  category_id UUID NOT NULL REFERENCES categories (id) ON DELETE CASCADE,
  PRIMARY KEY (document_id, category_id)
);`,
	},
	{
		Name: "create_table_storage_upload_audits",
		SQL: `CREATE TABLE IF NOT EXISTS storage_upload_audits (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id     TEXT        NOT NULL,
  document_name   TEXT        NOT NULL DEFAULT '',
  attachment_id   TEXT        NOT NULL,
  attachment_name TEXT        NOT NULL DEFAULT '',
  filename        TEXT        NOT NULL DEFAULT '',
  reason          TEXT        NOT NULL DEFAULT '',
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_orphan_blob_audits",
		SQL: `CREATE TABLE IF NOT EXISTS orphan_blob_audits (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  attachment_id TEXT        NOT NULL,
  reason        TEXT        NOT NULL DEFAULT '',
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_name ON documents (lower(name) text_pattern_ops);`,
	},
	{
		Name: "create_index_documents_lifecycle_state",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_lifecycle_state ON documents (lifecycle_state);`,
	},
	{
		Name: "create_index_documents_updated_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_updated_at ON documents (updated_at DESC);`,
	},
	{
		Name: "create_index_attachments_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_attachments_document_id ON attachments (document_id);`,
	},
	{
		Name: "create_index_storage_upload_audits_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_storage_upload_audits_document_id ON storage_upload_audits (document_id);`,
	},
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.documents') IS NOT NULL"
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
