package memstore

import (
	"context"
	"sort"

	"github.com/deskhub/facility-backend/internal/models"
)

// SettingStore keeps system settings in memory
type SettingStore struct{ s *Store }

func (r *SettingStore) GetAll(ctx context.Context) ([]models.SystemSetting, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	settings := make([]models.SystemSetting, 0, len(r.s.settings))
	for _, setting := range r.s.settings {
		settings = append(settings, setting)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].SettingKey < settings[j].SettingKey })
	return settings, nil
}

func (r *SettingStore) GetByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	setting, ok := r.s.settings[key]
	if !ok {
		return nil, notFound("setting")
	}
	return &setting, nil
}

func (r *SettingStore) Upsert(ctx context.Context, setting *models.SystemSetting) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := *setting
	if existing, ok := r.s.settings[setting.SettingKey]; ok {
		stored.CreatedAt = existing.CreatedAt
		if stored.Description == nil {
			stored.Description = existing.Description
		}
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}
	r.s.settings[setting.SettingKey] = stored
	return nil
}

// AuditStore keeps audit entries in memory
type AuditStore struct{ s *Store }

func (r *AuditStore) Insert(ctx context.Context, entry *models.AuditLog) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entry.ID = int64(len(r.s.audit) + 1)
	r.s.audit = append(r.s.audit, *entry)
	return nil
}

// Recent returns the newest entries first
func (r *AuditStore) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entries := make([]models.AuditLog, 0, limit)
	for i := len(r.s.audit) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, r.s.audit[i])
	}
	return entries, nil
}
