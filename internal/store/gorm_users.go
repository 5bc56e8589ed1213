package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"maintvault/pkg/domain"
)

type userRow struct {
	ID           uint
	Username     string
	PasswordHash string
	RoleName     string
	Department   string
	IsDeleted    bool
}

func userFromRow(r userRow) domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         domain.RoleName(r.RoleName),
		Department:   r.Department,
		Deleted:      r.IsDeleted,
	}
}

func roleByName(tx *gorm.DB, name domain.RoleName) (RoleModel, error) {
	var role RoleModel
	if err := tx.Where("role_name = ?", string(name)).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return role, fmt.Errorf("%w: %s", ErrRoleUnknown, name)
		}
		return role, err
	}
	return role, nil
}

// CreateUser inserts a user after resolving the role and pre-checking the
// username. Usernames are reserved even while their owner sits in trash.
func (s *GormStore) CreateUser(ctx context.Context, u domain.User, actorID uint) (uint, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var newID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := roleByName(tx, u.Role)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&UserModel{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrUsernameTaken, u.Username)
		}
		model := UserModel{
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			RoleID:       role.ID,
			Department:   u.Department,
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		newID = model.ID
		return logActivity(tx, actorID, domain.ActionInsert, domain.EntityUser, &model.ID,
			fmt.Sprintf("Added user: %s with role: %s", u.Username, u.Role))
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

func (s *GormStore) listUsers(ctx context.Context, deleted bool) ([]domain.User, error) {
	var rows []userRow
	err := s.db.WithContext(ctx).Model(&UserModel{}).
		Select("users.id, users.username, users.password_hash, roles.role_name, users.department, users.is_deleted").
		Joins("JOIN roles ON users.role_id = roles.id").
		Where("users.is_deleted = ?", deleted).
		Order("users.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		res = append(res, userFromRow(r))
	}
	return res, nil
}

// ListUsers returns active accounts ordered by id.
func (s *GormStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.listUsers(ctx, false)
}

// ListUserTrash returns soft-deleted accounts ordered by id.
func (s *GormStore) ListUserTrash(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.listUsers(ctx, true)
}

// GetUserByUsername fetches one active account, including the stored
// credential for login verification.
func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var rows []userRow
	err := s.db.WithContext(ctx).Model(&UserModel{}).
		Select("users.id, users.username, users.password_hash, roles.role_name, users.department, users.is_deleted").
		Joins("JOIN roles ON users.role_id = roles.id").
		Where("users.username = ? AND users.is_deleted = ?", username, false).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return domain.User{}, false, err
	}
	if len(rows) == 0 {
		return domain.User{}, false, nil
	}
	return userFromRow(rows[0]), true, nil
}

// UpdateUser changes role and department; the credential changes only
// when a non-empty new hash is supplied.
func (s *GormStore) UpdateUser(ctx context.Context, id uint, role domain.RoleName, department, newPasswordHash string, actorID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roleModel, err := roleByName(tx, role)
		if err != nil {
			return err
		}
		fields := map[string]any{
			"role_id":    roleModel.ID,
			"department": department,
		}
		description := fmt.Sprintf("Updated user ID %d (department, role)", id)
		if newPasswordHash != "" {
			fields["password_hash"] = newPasswordHash
			description = fmt.Sprintf("Updated user ID %d (department, role, password)", id)
		}
		res := tx.Model(&UserModel{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		uid := id
		return logActivity(tx, actorID, domain.ActionUpdate, domain.EntityUser, &uid, description)
	})
}

// TrashUser flags an account deleted. The self-delete guard lives in the
// app service, before this is reached.
func (s *GormStore) TrashUser(ctx context.Context, id, actorID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&UserModel{}).
			Where("id = ? AND is_deleted = ?", id, false).
			Update("is_deleted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		uid := id
		return logActivity(tx, actorID, domain.ActionTrash, domain.EntityUser, &uid,
			fmt.Sprintf("Moved user to trash ID: %d", id))
	})
}

// RestoreUser brings a trashed account back.
func (s *GormStore) RestoreUser(ctx context.Context, id, actorID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&UserModel{}).
			Where("id = ? AND is_deleted = ?", id, true).
			Update("is_deleted", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		uid := id
		return logActivity(tx, actorID, domain.ActionRestore, domain.EntityUser, &uid,
			fmt.Sprintf("Restored user from trash ID: %d", id))
	})
}

// PurgeUser removes a trashed account permanently. The activity entries
// it wrote stay behind with a NULL actor.
func (s *GormStore) PurgeUser(ctx context.Context, id, actorID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND is_deleted = ?", id, true).Delete(&UserModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		uid := id
		return logActivity(tx, actorID, domain.ActionDelete, domain.EntityUser, &uid,
			fmt.Sprintf("Permanently deleted user ID: %d", id))
	})
}

// CountActiveUsers counts non-deleted accounts.
func (s *GormStore) CountActiveUsers(ctx context.Context) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var count int64
	err := s.db.WithContext(ctx).Model(&UserModel{}).Where("is_deleted = ?", false).Count(&count).Error
	return count, err
}

// CountUsersByRole counts non-deleted accounts holding one role.
func (s *GormStore) CountUsersByRole(ctx context.Context, role domain.RoleName) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var count int64
	err := s.db.WithContext(ctx).Model(&UserModel{}).
		Joins("JOIN roles ON users.role_id = roles.id").
		Where("roles.role_name = ? AND users.is_deleted = ?", string(role), false).
		Count(&count).Error
	return count, err
}
