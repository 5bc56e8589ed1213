// Package app is the application service: it validates input, enforces
// the guards that span entities, and orchestrates the store and the
// attachment content store. Transactional atomicity of each mutation
// with its audit entry lives one layer down, in the store.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"maintvault/internal/attach"
	"maintvault/internal/store"
	"maintvault/pkg/auth"
	"maintvault/pkg/domain"
)

// App wires the data store and the attachment content store.
type App struct {
	store   store.Store
	content attach.ContentStore
}

// Config holds the collaborators App needs.
type Config struct {
	Store   store.Store
	Content attach.ContentStore
}

// New constructs the service. Both collaborators are required.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Content == nil {
		return nil, fmt.Errorf("attachment content store is required")
	}
	return &App{store: cfg.Store, content: cfg.Content}, nil
}

// --- maintenance records ---

// AddRecord validates and inserts one maintenance record.
func (a *App) AddRecord(ctx context.Context, rec domain.MaintenanceRecord, actorID uint) (uint, error) {
	if err := domain.Validate(rec); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return a.store.CreateMaintenance(ctx, rec, actorID)
}

// Records lists active records, optionally for one department.
func (a *App) Records(ctx context.Context, department string) ([]domain.MaintenanceRecord, error) {
	return a.store.ListMaintenance(ctx, department)
}

// TrashedRecords lists the maintenance trash bin.
func (a *App) TrashedRecords(ctx context.Context) ([]domain.MaintenanceRecord, error) {
	return a.store.ListMaintenanceTrash(ctx)
}

// UpdateRecord validates and rewrites one record.
func (a *App) UpdateRecord(ctx context.Context, rec domain.MaintenanceRecord, actorID uint) error {
	if err := domain.Validate(rec); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return a.store.UpdateMaintenance(ctx, rec, actorID)
}

// TrashRecord moves a record to the trash bin.
func (a *App) TrashRecord(ctx context.Context, id, actorID uint) error {
	return a.store.TrashMaintenance(ctx, id, actorID)
}

// RestoreRecord brings a record back from the trash bin.
func (a *App) RestoreRecord(ctx context.Context, id, actorID uint) error {
	return a.store.RestoreMaintenance(ctx, id, actorID)
}

// PurgeRecord permanently deletes a trashed record. Stored attachment
// content is removed best-effort after the rows are gone; a leftover
// file is logged, never a failed purge.
func (a *App) PurgeRecord(ctx context.Context, id, actorID uint) error {
	attachments, err := a.store.ListAttachments(ctx, id)
	if err != nil {
		return err
	}
	if err := a.store.PurgeMaintenance(ctx, id, actorID); err != nil {
		return err
	}
	for _, att := range attachments {
		if err := a.content.Remove(ctx, att.StoredPath); err != nil {
			slog.Warn("orphaned attachment content after purge", "attachmentId", att.ID, "err", err)
		}
	}
	return nil
}

// RecordHistory returns the audit trail of one maintenance record.
func (a *App) RecordHistory(ctx context.Context, id uint) ([]domain.ActivityEntry, error) {
	return a.store.EntityHistory(ctx, domain.EntityMaintenance, id)
}

// --- users ---

// AddUser hashes the credential and creates an account. actorID zero
// marks a system-initiated bootstrap (first admin).
func (a *App) AddUser(ctx context.Context, username, password string, role domain.RoleName, department string, actorID uint) (uint, error) {
	if strings.TrimSpace(password) == "" {
		return 0, fmt.Errorf("%w: field Password is required", ErrValidation)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}
	u := domain.User{
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		Role:         role,
		Department:   department,
	}
	if err := domain.Validate(u); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return a.store.CreateUser(ctx, u, actorID)
}

// Users lists active accounts.
func (a *App) Users(ctx context.Context) ([]domain.User, error) {
	return a.store.ListUsers(ctx)
}

// TrashedUsers lists the user trash bin.
func (a *App) TrashedUsers(ctx context.Context) ([]domain.User, error) {
	return a.store.ListUserTrash(ctx)
}

// UpdateUser changes role and department, and the credential only when a
// non-empty new password is supplied.
func (a *App) UpdateUser(ctx context.Context, id uint, role domain.RoleName, department, newPassword string, actorID uint) error {
	var hash string
	if newPassword != "" {
		var err error
		if hash, err = auth.HashPassword(newPassword); err != nil {
			return err
		}
	}
	return a.store.UpdateUser(ctx, id, role, department, hash, actorID)
}

// TrashUser soft-deletes an account. Self-delete is rejected before the
// store is touched.
func (a *App) TrashUser(ctx context.Context, id, actorID uint) error {
	if id == actorID {
		return ErrSelfDelete
	}
	return a.store.TrashUser(ctx, id, actorID)
}

// RestoreUser brings an account back from the trash bin.
func (a *App) RestoreUser(ctx context.Context, id, actorID uint) error {
	return a.store.RestoreUser(ctx, id, actorID)
}

// PurgeUser permanently deletes a trashed account; the self-delete guard
// applies here too.
func (a *App) PurgeUser(ctx context.Context, id, actorID uint) error {
	if id == actorID {
		return ErrSelfDelete
	}
	return a.store.PurgeUser(ctx, id, actorID)
}

// Authenticate verifies a login against the active accounts.
func (a *App) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	u, ok, err := a.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return domain.User{}, err
	}
	if !ok || !auth.CheckPassword(password, u.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	u.PasswordHash = ""
	return u, nil
}

// --- departments ---

// Departments lists all departments by name.
func (a *App) Departments(ctx context.Context) ([]domain.Department, error) {
	return a.store.ListDepartments(ctx)
}

// AddDepartment creates a department with a unique name.
func (a *App) AddDepartment(ctx context.Context, name string, actorID uint) (uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: field Name is required", ErrValidation)
	}
	return a.store.CreateDepartment(ctx, name, actorID)
}

// RenameDepartment changes a department name.
func (a *App) RenameDepartment(ctx context.Context, id uint, newName string, actorID uint) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: field Name is required", ErrValidation)
	}
	return a.store.RenameDepartment(ctx, id, newName, actorID)
}

// DeleteDepartment removes a department; the store refuses while active
// users or records still reference its name.
func (a *App) DeleteDepartment(ctx context.Context, id, actorID uint) error {
	return a.store.DeleteDepartment(ctx, id, actorID)
}

// --- attachments ---

// AttachFile stores the content under a generated name, then records the
// mapping. If the row insert fails the stored content is removed again.
func (a *App) AttachFile(ctx context.Context, maintenanceID uint, originalFilename string, r io.Reader, actorID uint) (domain.Attachment, error) {
	if strings.TrimSpace(originalFilename) == "" {
		return domain.Attachment{}, fmt.Errorf("%w: field OriginalFilename is required", ErrValidation)
	}
	key, err := a.content.Put(ctx, originalFilename, r)
	if err != nil {
		return domain.Attachment{}, err
	}
	att := domain.Attachment{
		MaintenanceID:    maintenanceID,
		OriginalFilename: originalFilename,
		StoredPath:       key,
	}
	if err := domain.Validate(att); err != nil {
		a.removeContent(ctx, key)
		return domain.Attachment{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	id, err := a.store.CreateAttachment(ctx, att, actorID)
	if err != nil {
		a.removeContent(ctx, key)
		return domain.Attachment{}, err
	}
	att.ID = id
	return att, nil
}

func (a *App) removeContent(ctx context.Context, key string) {
	if err := a.content.Remove(ctx, key); err != nil {
		slog.Warn("orphaned attachment content", "key", key, "err", err)
	}
}

// Attachments lists a record's attachments.
func (a *App) Attachments(ctx context.Context, maintenanceID uint) ([]domain.Attachment, error) {
	return a.store.ListAttachments(ctx, maintenanceID)
}

// RemoveAttachment deletes the stored content, then the row. A missing
// file counts as already removed; any other content failure aborts
// before the row is touched so nothing is lost silently.
func (a *App) RemoveAttachment(ctx context.Context, id, actorID uint) error {
	att, ok, err := a.store.GetAttachment(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	if err := a.content.Remove(ctx, att.StoredPath); err != nil {
		return err
	}
	return a.store.DeleteAttachmentRow(ctx, id, actorID)
}

// --- search and reports ---

// Search runs the composed filter query over active records.
func (a *App) Search(ctx context.Context, f domain.SearchFilters) ([]domain.MaintenanceRecord, error) {
	return a.store.SearchMaintenance(ctx, f)
}

// CountInPeriod counts active records in the inclusive date range.
func (a *App) CountInPeriod(ctx context.Context, dateFrom, dateTo, department string) (int64, error) {
	return a.store.CountMaintenanceInPeriod(ctx, dateFrom, dateTo, department)
}

// CountByDepartment groups period counts per department.
func (a *App) CountByDepartment(ctx context.Context, dateFrom, dateTo string) ([]domain.CountRow, error) {
	return a.store.CountByDepartment(ctx, dateFrom, dateTo)
}

// CountByDeviceType groups period counts per device type.
func (a *App) CountByDeviceType(ctx context.Context, dateFrom, dateTo, department string) ([]domain.CountRow, error) {
	return a.store.CountByDeviceType(ctx, dateFrom, dateTo, department)
}

// CountByTechnician groups period counts per technician.
func (a *App) CountByTechnician(ctx context.Context, dateFrom, dateTo, department string) ([]domain.CountRow, error) {
	return a.store.CountByTechnician(ctx, dateFrom, dateTo, department)
}

// AveragePerDay divides the period count by the inclusive day span.
// A reversed or unparsable range yields 0 rather than an error.
func (a *App) AveragePerDay(ctx context.Context, dateFrom, dateTo, department string) (float64, error) {
	from, err := time.Parse(domain.DateLayout, dateFrom)
	if err != nil {
		return 0, nil
	}
	to, err := time.Parse(domain.DateLayout, dateTo)
	if err != nil {
		return 0, nil
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days <= 0 {
		return 0, nil
	}
	count, err := a.store.CountMaintenanceInPeriod(ctx, dateFrom, dateTo, department)
	if err != nil {
		return 0, err
	}
	return float64(count) / float64(days), nil
}

// --- dashboard and activity ---

// Stats are the admin dashboard counters.
type Stats struct {
	TotalRecords int64 `json:"totalRecords"`
	TotalUsers   int64 `json:"totalUsers"`
	Admins       int64 `json:"admins"`
	Technicians  int64 `json:"technicians"`
}

// DashboardStats gathers the counters over active rows.
func (a *App) DashboardStats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error
	if s.TotalRecords, err = a.store.CountActiveMaintenance(ctx); err != nil {
		return s, err
	}
	if s.TotalUsers, err = a.store.CountActiveUsers(ctx); err != nil {
		return s, err
	}
	if s.Admins, err = a.store.CountUsersByRole(ctx, domain.RoleAdmin); err != nil {
		return s, err
	}
	if s.Technicians, err = a.store.CountUsersByRole(ctx, domain.RoleUser); err != nil {
		return s, err
	}
	return s, nil
}

// RecentActivity returns the newest audit entries for display.
func (a *App) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	return a.store.RecentActivity(ctx, limit)
}
