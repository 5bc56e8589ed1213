package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"maintvault/pkg/domain"
)

func maintenanceToModel(rec domain.MaintenanceRecord) MaintenanceModel {
	return MaintenanceModel{
		ID:         rec.ID,
		Date:       rec.Date,
		Type:       rec.Type,
		Device:     rec.Device,
		Technician: rec.Technician,
		Procedures: rec.Procedures,
		Materials:  rec.Materials,
		Notes:      rec.Notes,
		Warnings:   rec.Warnings,
		Department: rec.Department,
		IsDeleted:  rec.Deleted,
	}
}

func maintenanceFromModel(m MaintenanceModel) domain.MaintenanceRecord {
	return domain.MaintenanceRecord{
		ID:         m.ID,
		Date:       m.Date,
		Type:       m.Type,
		Device:     m.Device,
		Technician: m.Technician,
		Procedures: m.Procedures,
		Materials:  m.Materials,
		Notes:      m.Notes,
		Warnings:   m.Warnings,
		Department: m.Department,
		Deleted:    m.IsDeleted,
	}
}

// CreateMaintenance inserts a record and its INSERT audit entry.
func (s *GormStore) CreateMaintenance(ctx context.Context, rec domain.MaintenanceRecord, actorID uint) (uint, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	model := maintenanceToModel(rec)
	model.ID = 0
	model.IsDeleted = false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		id := model.ID
		return logActivity(tx, actorID, domain.ActionInsert, domain.EntityMaintenance, &id,
			fmt.Sprintf("Added record for device: %s", rec.Device))
	})
	if err != nil {
		return 0, err
	}
	return model.ID, nil
}

// ListMaintenance returns active records newest-id first, optionally
// restricted to one department.
func (s *GormStore) ListMaintenance(ctx context.Context, department string) ([]domain.MaintenanceRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	q := s.db.WithContext(ctx).Where("is_deleted = ?", false)
	if department != "" {
		q = q.Where("department = ?", department)
	}
	var models []MaintenanceModel
	if err := q.Order("id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return maintenanceSlice(models), nil
}

// ListMaintenanceTrash returns soft-deleted records newest-id first.
func (s *GormStore) ListMaintenanceTrash(ctx context.Context) ([]domain.MaintenanceRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var models []MaintenanceModel
	if err := s.db.WithContext(ctx).Where("is_deleted = ?", true).Order("id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return maintenanceSlice(models), nil
}

func maintenanceSlice(models []MaintenanceModel) []domain.MaintenanceRecord {
	res := make([]domain.MaintenanceRecord, 0, len(models))
	for _, m := range models {
		res = append(res, maintenanceFromModel(m))
	}
	return res
}

// UpdateMaintenance rewrites all editable columns of one record.
func (s *GormStore) UpdateMaintenance(ctx context.Context, rec domain.MaintenanceRecord, actorID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&MaintenanceModel{}).Where("id = ?", rec.ID).Updates(map[string]any{
			"date":       rec.Date,
			"type":       rec.Type,
			"device":     rec.Device,
			"technician": rec.Technician,
			"procedures": rec.Procedures,
			"materials":  rec.Materials,
			"notes":      rec.Notes,
			"warnings":   rec.Warnings,
			"department": rec.Department,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		id := rec.ID
		return logActivity(tx, actorID, domain.ActionUpdate, domain.EntityMaintenance, &id,
			fmt.Sprintf("Updated record for device: %s", rec.Device))
	})
}

// TrashMaintenance flags a record deleted. Already-trashed ids are a
// no-op reported as ErrNotFound.
func (s *GormStore) TrashMaintenance(ctx context.Context, id, actorID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&MaintenanceModel{}).
			Where("id = ? AND is_deleted = ?", id, false).
			Update("is_deleted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		rid := id
		return logActivity(tx, actorID, domain.ActionTrash, domain.EntityMaintenance, &rid,
			fmt.Sprintf("Moved record to trash ID: %d", id))
	})
}

// RestoreMaintenance brings a trashed record back.
func (s *GormStore) RestoreMaintenance(ctx context.Context, id, actorID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&MaintenanceModel{}).
			Where("id = ? AND is_deleted = ?", id, true).
			Update("is_deleted", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		rid := id
		return logActivity(tx, actorID, domain.ActionRestore, domain.EntityMaintenance, &rid,
			fmt.Sprintf("Restored record from trash ID: %d", id))
	})
}

// PurgeMaintenance removes a record permanently; only trashed records
// qualify. Attachment rows go with it via the FK cascade.
func (s *GormStore) PurgeMaintenance(ctx context.Context, id, actorID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND is_deleted = ?", id, true).Delete(&MaintenanceModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		rid := id
		return logActivity(tx, actorID, domain.ActionDelete, domain.EntityMaintenance, &rid,
			fmt.Sprintf("Permanently deleted record ID: %d", id))
	})
}
