package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deskhub/facility-backend/internal/models"
)

// SystemSettingRepository handles database operations for system_settings table
type SystemSettingRepository struct {
	db DB
}

// NewSystemSettingRepository creates a new SystemSettingRepository
func NewSystemSettingRepository(db DB) *SystemSettingRepository {
	return &SystemSettingRepository{db: db}
}

// GetAll retrieves all system settings
func (r *SystemSettingRepository) GetAll(ctx context.Context) ([]models.SystemSetting, error) {
	query := `
		SELECT setting_key, setting_value, description, updated_by, created_at, updated_at
		FROM system_settings
		ORDER BY setting_key
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	settings := []models.SystemSetting{}
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, *setting)
	}

	return settings, rows.Err()
}

// GetByKey retrieves a system setting by its key
func (r *SystemSettingRepository) GetByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	query := `
		SELECT setting_key, setting_value, description, updated_by, created_at, updated_at
		FROM system_settings
		WHERE setting_key = $1
	`

	setting, err := scanSetting(conn(ctx, r.db).QueryRowxContext(ctx, query, key))
	if err != nil {
		return nil, notFound(err, "setting")
	}
	return setting, nil
}

// Upsert creates or replaces a setting value
func (r *SystemSettingRepository) Upsert(ctx context.Context, s *models.SystemSetting) error {
	query := `
		INSERT INTO system_settings (setting_key, setting_value, description, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (setting_key) DO UPDATE
		SET setting_value = EXCLUDED.setting_value,
		    description = COALESCE(EXCLUDED.description, system_settings.description),
		    updated_by = EXCLUDED.updated_by,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		s.SettingKey, s.SettingValue, s.Description, s.UpdatedBy, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", s.SettingKey, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSetting(row rowScanner) (*models.SystemSetting, error) {
	var setting models.SystemSetting
	var description, updatedBy sql.NullString

	err := row.Scan(
		&setting.SettingKey,
		&setting.SettingValue,
		&description,
		&updatedBy,
		&setting.CreatedAt,
		&setting.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		setting.Description = &description.String
	}
	if updatedBy.Valid {
		setting.UpdatedBy = &updatedBy.String
	}

	return &setting, nil
}
