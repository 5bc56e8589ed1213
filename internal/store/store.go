package store

import (
	"context"

	"maintvault/pkg/domain"
)

// Store defines persistence for maintenance records, users, departments,
// attachments, and the activity log.
//
// Every mutating method executes its statement and the matching
// activity-log insert inside one transaction; they commit or roll back
// together. A mutation that matches zero rows returns ErrNotFound and
// writes no log entry. actorID identifies the authenticated user for the
// audit trail; zero means a system-initiated action and is stored as NULL.
type Store interface {
	// maintenance records
	CreateMaintenance(ctx context.Context, rec domain.MaintenanceRecord, actorID uint) (uint, error)
	ListMaintenance(ctx context.Context, department string) ([]domain.MaintenanceRecord, error)
	ListMaintenanceTrash(ctx context.Context) ([]domain.MaintenanceRecord, error)
	UpdateMaintenance(ctx context.Context, rec domain.MaintenanceRecord, actorID uint) error
	TrashMaintenance(ctx context.Context, id, actorID uint) error
	RestoreMaintenance(ctx context.Context, id, actorID uint) error
	PurgeMaintenance(ctx context.Context, id, actorID uint) error

	// search and reporting over non-deleted records
	SearchMaintenance(ctx context.Context, f domain.SearchFilters) ([]domain.MaintenanceRecord, error)
	CountMaintenanceInPeriod(ctx context.Context, dateFrom, dateTo, department string) (int64, error)
	CountByDepartment(ctx context.Context, dateFrom, dateTo string) ([]domain.CountRow, error)
	CountByDeviceType(ctx context.Context, dateFrom, dateTo, department string) ([]domain.CountRow, error)
	CountByTechnician(ctx context.Context, dateFrom, dateTo, department string) ([]domain.CountRow, error)
	CountActiveMaintenance(ctx context.Context) (int64, error)

	// users
	CreateUser(ctx context.Context, u domain.User, actorID uint) (uint, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListUserTrash(ctx context.Context) ([]domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, bool, error)
	UpdateUser(ctx context.Context, id uint, role domain.RoleName, department, newPasswordHash string, actorID uint) error
	TrashUser(ctx context.Context, id, actorID uint) error
	RestoreUser(ctx context.Context, id, actorID uint) error
	PurgeUser(ctx context.Context, id, actorID uint) error
	CountActiveUsers(ctx context.Context) (int64, error)
	CountUsersByRole(ctx context.Context, role domain.RoleName) (int64, error)

	// departments
	ListDepartments(ctx context.Context) ([]domain.Department, error)
	GetDepartmentID(ctx context.Context, name string) (uint, bool, error)
	CreateDepartment(ctx context.Context, name string, actorID uint) (uint, error)
	RenameDepartment(ctx context.Context, id uint, newName string, actorID uint) error
	DeleteDepartment(ctx context.Context, id, actorID uint) error

	// attachments (rows only; file content lives in attach.ContentStore)
	CreateAttachment(ctx context.Context, a domain.Attachment, actorID uint) (uint, error)
	ListAttachments(ctx context.Context, maintenanceID uint) ([]domain.Attachment, error)
	GetAttachment(ctx context.Context, id uint) (domain.Attachment, bool, error)
	DeleteAttachmentRow(ctx context.Context, id, actorID uint) error

	// activity log (append-only; reads only)
	RecentActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error)
	EntityHistory(ctx context.Context, entityType domain.EntityType, recordID uint) ([]domain.ActivityEntry, error)
}
