package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/deskhub/facility-backend/internal/apperr"
	"github.com/deskhub/facility-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var settingRowColumns = []string{"setting_key", "setting_value", "description", "updated_by", "created_at", "updated_at"}

func TestSystemSettingRepository_GetByKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSystemSettingRepository(db)
	now := time.Now()

	t.Run("Null Description", func(t *testing.T) {
		mock.ExpectQuery(`FROM system_settings\s+WHERE setting_key = \$1`).
			WithArgs(models.SettingRejectUnavailableResources).
			WillReturnRows(sqlmock.NewRows(settingRowColumns).
				AddRow(models.SettingRejectUnavailableResources, "true", nil, nil, now, now))

		s, err := repo.GetByKey(context.Background(), models.SettingRejectUnavailableResources)
		require.NoError(t, err)
		assert.Equal(t, "true", s.SettingValue)
		assert.Nil(t, s.Description)
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery(`FROM system_settings`).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByKey(context.Background(), "nope")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSystemSettingRepository_GetAll(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSystemSettingRepository(db)
	now := time.Now()
	desc := "Reject bookings on unavailable resources"

	mock.ExpectQuery(`FROM system_settings\s+ORDER BY setting_key`).
		WillReturnRows(sqlmock.NewRows(settingRowColumns).
			AddRow("a", "1", desc, "admin", now, now).
			AddRow("b", "2", nil, nil, now, now))

	settings, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, settings, 2)
	require.NotNil(t, settings[0].Description)
	assert.Equal(t, desc, *settings[0].Description)
	assert.Equal(t, "admin", *settings[0].UpdatedBy)
	assert.Nil(t, settings[1].UpdatedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}
