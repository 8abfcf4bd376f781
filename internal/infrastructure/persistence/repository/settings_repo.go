package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

// SettingsRepository implements port.SettingsRepository. Every read hits the
// database; the engine relies on seeing configuration changes immediately.
type SettingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *sql.DB, logger *zap.Logger) port.SettingsRepository {
	return &SettingsRepository{db: db, logger: logger}
}

// GetByOrganisation returns the organisation's settings, or nil when none
// are stored yet.
func (r *SettingsRepository) GetByOrganisation(ctx context.Context, orgID string) (*entity.WorkflowSettings, error) {
	query := `
		SELECT organisation_id, use_custom_workflows,
			auto_approve_below_amount, require_ceo_above_amount, updated_at
		FROM workflow_settings
		WHERE organisation_id = ?
	`

	var s entity.WorkflowSettings
	var autoApprove, requireCEO sql.NullString

	err := r.db.QueryRowContext(ctx, query, orgID).Scan(
		&s.OrganisationID,
		&s.UseCustomWorkflows,
		&autoApprove,
		&requireCEO,
		&s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	if s.AutoApproveBelowAmount, err = nullDecimal(autoApprove); err != nil {
		return nil, err
	}
	if s.RequireCEOAboveAmount, err = nullDecimal(requireCEO); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save upserts the organisation's settings.
func (r *SettingsRepository) Save(ctx context.Context, settings *entity.WorkflowSettings) error {
	query := `
		INSERT INTO workflow_settings (
			organisation_id, use_custom_workflows,
			auto_approve_below_amount, require_ceo_above_amount, updated_at
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(organisation_id) DO UPDATE SET
			use_custom_workflows = excluded.use_custom_workflows,
			auto_approve_below_amount = excluded.auto_approve_below_amount,
			require_ceo_above_amount = excluded.require_ceo_above_amount,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		settings.OrganisationID,
		settings.UseCustomWorkflows,
		decimalString(settings.AutoApproveBelowAmount),
		decimalString(settings.RequireCEOAboveAmount),
		settings.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save settings", zap.String("organisation_id", settings.OrganisationID), zap.Error(err))
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func nullDecimal(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", v.String, err)
	}
	return &d, nil
}

func decimalString(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}
