package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"maintvault/pkg/domain"
)

// ListDepartments returns all departments ordered by name.
func (s *GormStore) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var models []DepartmentModel
	if err := s.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Department, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Department{ID: m.ID, Name: m.Name})
	}
	return res, nil
}

// GetDepartmentID resolves a department name.
func (s *GormStore) GetDepartmentID(ctx context.Context, name string) (uint, bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var model DepartmentModel
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return model.ID, true, nil
}

// CreateDepartment inserts a department, translating the unique-name
// violation into a domain error.
func (s *GormStore) CreateDepartment(ctx context.Context, name string, actorID uint) (uint, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	model := DepartmentModel{Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrDepartmentExists, name)
			}
			return err
		}
		return logActivity(tx, actorID, domain.ActionInsert, domain.EntityDepartment, &model.ID,
			fmt.Sprintf("Added department: %s", name))
	})
	if err != nil {
		return 0, err
	}
	return model.ID, nil
}

// RenameDepartment changes a department's name. Existing user and
// maintenance rows keep the old text; callers rename only unused
// departments or migrate references themselves.
func (s *GormStore) RenameDepartment(ctx context.Context, id uint, newName string, actorID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&DepartmentModel{}).Where("id = ?", id).Update("name", newName)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrDepartmentExists, newName)
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		did := id
		return logActivity(tx, actorID, domain.ActionUpdate, domain.EntityDepartment, &did,
			fmt.Sprintf("Renamed department to: %s", newName))
	})
}

// DeleteDepartment removes a department after the reference guard clears
// it. Check and delete share one transaction so no writer can slip a
// reference in between.
func (s *GormStore) DeleteDepartment(ctx context.Context, id, actorID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dept DepartmentModel
		if err := tx.First(&dept, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if reason, err := departmentInUse(tx, dept.Name); err != nil {
			return err
		} else if reason != "" {
			return &DepartmentInUseError{Name: dept.Name, Reason: reason}
		}
		res := tx.Delete(&DepartmentModel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		did := id
		return logActivity(tx, actorID, domain.ActionDelete, domain.EntityDepartment, &did,
			fmt.Sprintf("Deleted department: %s", dept.Name))
	})
}
