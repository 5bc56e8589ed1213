package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"maintvault/pkg/domain"
)

func attachmentFromModel(m AttachmentModel) domain.Attachment {
	return domain.Attachment{
		ID:               m.ID,
		MaintenanceID:    m.MaintenanceID,
		OriginalFilename: m.OriginalFilename,
		StoredPath:       m.StoredFilepath,
	}
}

// CreateAttachment inserts the filename-to-storage mapping for a record.
func (s *GormStore) CreateAttachment(ctx context.Context, a domain.Attachment, actorID uint) (uint, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	model := AttachmentModel{
		MaintenanceID:    a.MaintenanceID,
		OriginalFilename: a.OriginalFilename,
		StoredFilepath:   a.StoredPath,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Maintenance").Create(&model).Error; err != nil {
			return err
		}
		return logActivity(tx, actorID, domain.ActionInsert, domain.EntityAttachment, &model.ID,
			fmt.Sprintf("Added attachment '%s' to maintenance record %d", a.OriginalFilename, a.MaintenanceID))
	})
	if err != nil {
		return 0, err
	}
	return model.ID, nil
}

// ListAttachments returns a record's attachments ordered by id.
func (s *GormStore) ListAttachments(ctx context.Context, maintenanceID uint) ([]domain.Attachment, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var models []AttachmentModel
	if err := s.db.WithContext(ctx).
		Where("maintenance_id = ?", maintenanceID).
		Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Attachment, 0, len(models))
	for _, m := range models {
		res = append(res, attachmentFromModel(m))
	}
	return res, nil
}

// GetAttachment fetches one attachment row.
func (s *GormStore) GetAttachment(ctx context.Context, id uint) (domain.Attachment, bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var model AttachmentModel
	err := s.db.WithContext(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Attachment{}, false, nil
	}
	if err != nil {
		return domain.Attachment{}, false, err
	}
	return attachmentFromModel(model), true, nil
}

// DeleteAttachmentRow removes the database row and logs it. The stored
// file is the app service's responsibility, removed before this call.
func (s *GormStore) DeleteAttachmentRow(ctx context.Context, id, actorID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model AttachmentModel
		if err := tx.First(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		res := tx.Delete(&AttachmentModel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		aid := id
		return logActivity(tx, actorID, domain.ActionDelete, domain.EntityAttachment, &aid,
			fmt.Sprintf("Removed attachment '%s' from maintenance record %d", model.OriginalFilename, model.MaintenanceID))
	})
}
