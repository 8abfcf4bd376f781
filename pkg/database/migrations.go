package database

import (
	"fmt"

	"go.uber.org/zap"
)

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations run in version order; each applies at most once, tracked in
// schema_migrations.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_documents",
		SQL: `
			CREATE TABLE IF NOT EXISTS documents (
				id TEXT PRIMARY KEY,
				organisation_id TEXT NOT NULL,
				doc_type TEXT NOT NULL,
				reference TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				amount TEXT NOT NULL,
				status TEXT NOT NULL,
				owner_id TEXT NOT NULL,
				approver_id TEXT NOT NULL DEFAULT '',
				rejection_reason TEXT NOT NULL DEFAULT '',
				matched_po_id TEXT NOT NULL DEFAULT '',
				mismatch_note TEXT NOT NULL DEFAULT '',
				submitted_at DATETIME,
				approved_at DATETIME,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_documents_org_status ON documents(organisation_id, status);
		`,
	},
	{
		Version: 2,
		Name:    "create_approval_log",
		SQL: `
			CREATE TABLE IF NOT EXISTS approval_log (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				document_id TEXT NOT NULL,
				action TEXT NOT NULL,
				actor_id TEXT NOT NULL,
				on_behalf_of TEXT NOT NULL DEFAULT '',
				previous_status TEXT NOT NULL,
				new_status TEXT NOT NULL,
				comment TEXT NOT NULL DEFAULT '',
				timestamp DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_approval_log_document ON approval_log(document_id, seq);
		`,
	},
	{
		Version: 3,
		Name:    "create_workflow_settings",
		SQL: `
			CREATE TABLE IF NOT EXISTS workflow_settings (
				organisation_id TEXT PRIMARY KEY,
				use_custom_workflows INTEGER NOT NULL DEFAULT 0,
				auto_approve_below_amount TEXT,
				require_ceo_above_amount TEXT,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
	{
		Version: 4,
		Name:    "create_workflows_and_steps",
		SQL: `
			CREATE TABLE IF NOT EXISTS approval_workflows (
				id TEXT PRIMARY KEY,
				organisation_id TEXT NOT NULL,
				name TEXT NOT NULL,
				document_type TEXT NOT NULL,
				is_default INTEGER NOT NULL DEFAULT 0,
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_workflows_org_type ON approval_workflows(organisation_id, document_type);

			CREATE TABLE IF NOT EXISTS workflow_steps (
				id TEXT PRIMARY KEY,
				workflow_id TEXT NOT NULL REFERENCES approval_workflows(id) ON DELETE CASCADE,
				step_order INTEGER NOT NULL,
				approver_role TEXT NOT NULL,
				min_amount TEXT,
				max_amount TEXT,
				skip_if_below_amount TEXT,
				is_required INTEGER NOT NULL DEFAULT 1,
				UNIQUE(workflow_id, step_order)
			);
		`,
	},
	{
		Version: 5,
		Name:    "create_delegations",
		SQL: `
			CREATE TABLE IF NOT EXISTS approval_delegations (
				id TEXT PRIMARY KEY,
				delegator_id TEXT NOT NULL,
				delegate_id TEXT NOT NULL,
				scope TEXT NOT NULL,
				starts_at DATETIME,
				ends_at DATETIME,
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(delegator_id, delegate_id)
			);
			CREATE INDEX IF NOT EXISTS idx_delegations_delegate ON approval_delegations(delegate_id, scope);
		`,
	},
	{
		Version: 6,
		Name:    "create_principals",
		SQL: `
			CREATE TABLE IF NOT EXISTS principals (
				id TEXT PRIMARY KEY,
				role TEXT NOT NULL,
				organisation_id TEXT NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				is_active INTEGER NOT NULL DEFAULT 1
			);
			CREATE INDEX IF NOT EXISTS idx_principals_org_role ON principals(organisation_id, role);
		`,
	},
	{
		Version: 7,
		Name:    "create_notifications",
		SQL: `
			CREATE TABLE IF NOT EXISTS notifications (
				id TEXT PRIMARY KEY,
				document_id TEXT NOT NULL,
				recipient_id TEXT NOT NULL,
				template_key TEXT NOT NULL,
				payload TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'PENDING',
				error_msg TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				sent_at DATETIME
			);
			CREATE INDEX IF NOT EXISTS idx_notifications_document ON notifications(document_id);
		`,
	},
}

// Migrator applies pending migrations.
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

func (m *Migrator) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := m.db.Exec(query)
	return err
}

func (m *Migrator) appliedVersions() (map[int]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// Run executes all pending migrations in version order.
func (m *Migrator) Run() error {
	if err := m.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.appliedVersions()
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}

		m.logger.Info("Applying migration",
			zap.Int("version", mig.Version),
			zap.String("name", mig.Name))

		tx, err := m.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", mig.Version, err)
		}
		if _, err := tx.Exec(mig.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", mig.Version, mig.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", mig.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", mig.Version, err)
		}
	}

	return nil
}
