package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"maintvault/pkg/domain"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in-process. It mirrors GormStore's
// semantics (not-found outcomes, guard refusals, one log entry per
// successful mutation) so service logic can be tested without MySQL.
type MemoryStore struct {
	mu          sync.RWMutex
	maintenance map[uint]domain.MaintenanceRecord
	users       map[uint]domain.User
	departments map[uint]domain.Department
	attachments map[uint]domain.Attachment
	activity    []domain.ActivityEntry

	nextMaintenance uint
	nextUser        uint
	nextDepartment  uint
	nextAttachment  uint
	nextActivity    uint
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		maintenance: make(map[uint]domain.MaintenanceRecord),
		users:       make(map[uint]domain.User),
		departments: make(map[uint]domain.Department),
		attachments: make(map[uint]domain.Attachment),
	}
}

func (m *MemoryStore) log(actorID uint, action domain.Action, entityType domain.EntityType, recordID *uint, description string) {
	m.nextActivity++
	entry := domain.ActivityEntry{
		ID:          m.nextActivity,
		Action:      action,
		EntityType:  entityType,
		EntityID:    recordID,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}
	if actorID != 0 {
		actor := actorID
		entry.ActorID = &actor
	}
	m.activity = append(m.activity, entry)
}

// --- maintenance ---

func (m *MemoryStore) CreateMaintenance(_ context.Context, rec domain.MaintenanceRecord, actorID uint) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMaintenance++
	rec.ID = m.nextMaintenance
	rec.Deleted = false
	m.maintenance[rec.ID] = rec
	id := rec.ID
	m.log(actorID, domain.ActionInsert, domain.EntityMaintenance, &id,
		fmt.Sprintf("Added record for device: %s", rec.Device))
	return rec.ID, nil
}

func (m *MemoryStore) listMaintenance(deleted bool, department string) []domain.MaintenanceRecord {
	res := make([]domain.MaintenanceRecord, 0, len(m.maintenance))
	for _, rec := range m.maintenance {
		if rec.Deleted != deleted {
			continue
		}
		if department != "" && rec.Department != department {
			continue
		}
		res = append(res, rec)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	return res
}

func (m *MemoryStore) ListMaintenance(_ context.Context, department string) ([]domain.MaintenanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listMaintenance(false, department), nil
}

func (m *MemoryStore) ListMaintenanceTrash(_ context.Context) ([]domain.MaintenanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listMaintenance(true, ""), nil
}

func (m *MemoryStore) UpdateMaintenance(_ context.Context, rec domain.MaintenanceRecord, actorID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.maintenance[rec.ID]
	if !ok {
		return ErrNotFound
	}
	rec.Deleted = existing.Deleted
	m.maintenance[rec.ID] = rec
	id := rec.ID
	m.log(actorID, domain.ActionUpdate, domain.EntityMaintenance, &id,
		fmt.Sprintf("Updated record for device: %s", rec.Device))
	return nil
}

func (m *MemoryStore) TrashMaintenance(_ context.Context, id, actorID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.maintenance[id]
	if !ok || rec.Deleted {
		return ErrNotFound
	}
	rec.Deleted = true
	m.maintenance[id] = rec
	rid := id
	m.log(actorID, domain.ActionTrash, domain.EntityMaintenance, &rid,
		fmt.Sprintf("Moved record to trash ID: %d", id))
	return nil
}

func (m *MemoryStore) RestoreMaintenance(_ context.Context, id, actorID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.maintenance[id]
	if !ok || !rec.Deleted {
		return ErrNotFound
	}
	rec.Deleted = false
	m.maintenance[id] = rec
	rid := id
	m.log(actorID, domain.ActionRestore, domain.EntityMaintenance, &rid,
		fmt.Sprintf("Restored record from trash ID: %d", id))
	return nil
}

func (m *MemoryStore) PurgeMaintenance(_ context.Context, id, actorID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.maintenance[id]
	if !ok || !rec.Deleted {
		return ErrNotFound
	}
	delete(m.maintenance, id)
	for aid, att := range m.attachments {
		if att.MaintenanceID == id {
			delete(m.attachments, aid)
		}
	}
	rid := id
	m.log(actorID, domain.ActionDelete, domain.EntityMaintenance, &rid,
		fmt.Sprintf("Permanently deleted record ID: %d", id))
	return nil
}

// --- search and reporting ---

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func matchesFilters(rec domain.MaintenanceRecord, f domain.SearchFilters) bool {
	if rec.Deleted {
		return false
	}
	if f.DateFrom != "" && f.DateTo != "" {
		if rec.Date < f.DateFrom || rec.Date > f.DateTo {
			return false
		}
	}
	if f.Department != "" && rec.Department != f.Department {
		return false
	}
	if f.Keyword != "" {
		if !containsFold(rec.Device, f.Keyword) &&
			!containsFold(rec.Procedures, f.Keyword) &&
			!containsFold(rec.Materials, f.Keyword) &&
			!containsFold(rec.Notes, f.Keyword) &&
			!containsFold(rec.Warnings, f.Keyword) {
			return false
		}
	}
	return true
}

func (m *MemoryStore) SearchMaintenance(_ context.Context, f domain.SearchFilters) ([]domain.MaintenanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.MaintenanceRecord, 0)
	for _, rec := range m.maintenance {
		if matchesFilters(rec, f) {
			res = append(res, rec)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	return res, nil
}

func (m *MemoryStore) CountMaintenanceInPeriod(_ context.Context, dateFrom, dateTo, department string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f := domain.SearchFilters{DateFrom: dateFrom, DateTo: dateTo, Department: department}
	var count int64
	for _, rec := range m.maintenance {
		if matchesFilters(rec, f) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) countBy(dateFrom, dateTo, department string, key func(domain.MaintenanceRecord) string) []domain.CountRow {
	f := domain.SearchFilters{DateFrom: dateFrom, DateTo: dateTo, Department: department}
	buckets := make(map[string]int64)
	for _, rec := range m.maintenance {
		if matchesFilters(rec, f) {
			buckets[key(rec)]++
		}
	}
	rows := make([]domain.CountRow, 0, len(buckets))
	for label, count := range buckets {
		rows = append(rows, domain.CountRow{Label: label, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}

func (m *MemoryStore) CountByDepartment(_ context.Context, dateFrom, dateTo string) ([]domain.CountRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countBy(dateFrom, dateTo, "", func(r domain.MaintenanceRecord) string { return r.Department }), nil
}

func (m *MemoryStore) CountByDeviceType(_ context.Context, dateFrom, dateTo, department string) ([]domain.CountRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countBy(dateFrom, dateTo, department, func(r domain.MaintenanceRecord) string { return r.Type }), nil
}

func (m *MemoryStore) CountByTechnician(_ context.Context, dateFrom, dateTo, department string) ([]domain.CountRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countBy(dateFrom, dateTo, department, func(r domain.MaintenanceRecord) string { return r.Technician }), nil
}

func (m *MemoryStore) CountActiveMaintenance(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, rec := range m.maintenance {
		if !rec.Deleted {
			count++
		}
	}
	return count, nil
}

// --- users ---

func (m *MemoryStore) CreateUser(_ context.Context, u domain.User, actorID uint) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Role != domain.RoleAdmin && u.Role != domain.RoleUser {
		return 0, fmt.Errorf("%w: %s", ErrRoleUnknown, u.Role)
	}
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return 0, fmt.Errorf("%w: %s", ErrUsernameTaken, u.Username)
		}
	}
	m.nextUser++
	u.ID = m.nextUser
	u.Deleted = false
	m.users[u.ID] = u
	id := u.ID
	m.log(actorID, domain.ActionInsert, domain.EntityUser, &id,
		fmt.Sprintf("Added user: %s with role: %s", u.Username, u.Role))
	return u.ID, nil
}

func (m *MemoryStore) listUsers(deleted bool) []domain.User {
	res := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		if u.Deleted == deleted {
			res = append(res, u)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listUsers(false), nil
}

func (m *MemoryStore) ListUserTrash(_ context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listUsers(true), nil
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username && !u.Deleted {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (m *MemoryStore) UpdateUser(_ context.Context, id uint, role domain.RoleName, department, newPasswordHash string, actorID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return fmt.Errorf("%w: %s", ErrRoleUnknown, role)
	}
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	u.Department = department
	description := fmt.Sprintf("Updated user ID %d (department, role)", id)
	if newPasswordHash != "" {
		u.PasswordHash = newPasswordHash
		description = fmt.Sprintf("Updated user ID %d (department, role, password)", id)
	}
	m.users[id] = u
	uid := id
	m.log(actorID, domain.ActionUpdate, domain.EntityUser, &uid, description)
	return nil
}

func (m *MemoryStore) TrashUser(_ context.Context, id, actorID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.Deleted {
		return ErrNotFound
	}
	u.Deleted = true
	m.users[id] = u
	uid := id
	m.log(actorID, domain.ActionTrash, domain.EntityUser, &uid,
		fmt.Sprintf("Moved user to trash ID: %d", id))
	return nil
}

func (m *MemoryStore) RestoreUser(_ context.Context, id, actorID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || !u.Deleted {
		return ErrNotFound
	}
	u.Deleted = false
	m.users[id] = u
	uid := id
	m.log(actorID, domain.ActionRestore, domain.EntityUser, &uid,
		fmt.Sprintf("Restored user from trash ID: %d", id))
	return nil
}

func (m *MemoryStore) PurgeUser(_ context.Context, id, actorID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || !u.Deleted {
		return ErrNotFound
	}
	delete(m.users, id)
	uid := id
	m.log(actorID, domain.ActionDelete, domain.EntityUser, &uid,
		fmt.Sprintf("Permanently deleted user ID: %d", id))
	return nil
}

func (m *MemoryStore) CountActiveUsers(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.listUsers(false))), nil
}

func (m *MemoryStore) CountUsersByRole(_ context.Context, role domain.RoleName) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, u := range m.users {
		if !u.Deleted && u.Role == role {
			count++
		}
	}
	return count, nil
}

// --- departments ---

func (m *MemoryStore) ListDepartments(_ context.Context) ([]domain.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Department, 0, len(m.departments))
	for _, d := range m.departments {
		res = append(res, d)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (m *MemoryStore) GetDepartmentID(_ context.Context, name string) (uint, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.departments {
		if d.Name == name {
			return d.ID, true, nil
		}
	}
	return 0, false, nil
}

func (m *MemoryStore) CreateDepartment(_ context.Context, name string, actorID uint) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.departments {
		if d.Name == name {
			return 0, fmt.Errorf("%w: %s", ErrDepartmentExists, name)
		}
	}
	m.nextDepartment++
	dept := domain.Department{ID: m.nextDepartment, Name: name}
	m.departments[dept.ID] = dept
	id := dept.ID
	m.log(actorID, domain.ActionInsert, domain.EntityDepartment, &id,
		fmt.Sprintf("Added department: %s", name))
	return dept.ID, nil
}

func (m *MemoryStore) RenameDepartment(_ context.Context, id uint, newName string, actorID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.departments {
		if d.Name == newName && d.ID != id {
			return fmt.Errorf("%w: %s", ErrDepartmentExists, newName)
		}
	}
	d, ok := m.departments[id]
	if !ok {
		return ErrNotFound
	}
	d.Name = newName
	m.departments[id] = d
	did := id
	m.log(actorID, domain.ActionUpdate, domain.EntityDepartment, &did,
		fmt.Sprintf("Renamed department to: %s", newName))
	return nil
}

func (m *MemoryStore) DeleteDepartment(_ context.Context, id, actorID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.departments[id]
	if !ok {
		return ErrNotFound
	}
	for _, u := range m.users {
		if !u.Deleted && u.Department == d.Name {
			return &DepartmentInUseError{Name: d.Name, Reason: "it is assigned to active users"}
		}
	}
	for _, rec := range m.maintenance {
		if !rec.Deleted && rec.Department == d.Name {
			return &DepartmentInUseError{Name: d.Name, Reason: "it is referenced by maintenance records"}
		}
	}
	delete(m.departments, id)
	did := id
	m.log(actorID, domain.ActionDelete, domain.EntityDepartment, &did,
		fmt.Sprintf("Deleted department: %s", d.Name))
	return nil
}

// --- attachments ---

func (m *MemoryStore) CreateAttachment(_ context.Context, a domain.Attachment, actorID uint) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.maintenance[a.MaintenanceID]; !ok {
		return 0, ErrNotFound
	}
	m.nextAttachment++
	a.ID = m.nextAttachment
	m.attachments[a.ID] = a
	id := a.ID
	m.log(actorID, domain.ActionInsert, domain.EntityAttachment, &id,
		fmt.Sprintf("Added attachment '%s' to maintenance record %d", a.OriginalFilename, a.MaintenanceID))
	return a.ID, nil
}

func (m *MemoryStore) ListAttachments(_ context.Context, maintenanceID uint) ([]domain.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Attachment, 0)
	for _, a := range m.attachments {
		if a.MaintenanceID == maintenanceID {
			res = append(res, a)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *MemoryStore) GetAttachment(_ context.Context, id uint) (domain.Attachment, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attachments[id]
	return a, ok, nil
}

func (m *MemoryStore) DeleteAttachmentRow(_ context.Context, id, actorID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attachments[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.attachments, id)
	aid := id
	m.log(actorID, domain.ActionDelete, domain.EntityAttachment, &aid,
		fmt.Sprintf("Removed attachment '%s' from maintenance record %d", a.OriginalFilename, a.MaintenanceID))
	return nil
}

// --- activity log ---

func (m *MemoryStore) decorate(entry domain.ActivityEntry) domain.ActivityEntry {
	entry.Username = domain.DeletedUserLabel
	if entry.ActorID != nil {
		if u, ok := m.users[*entry.ActorID]; ok {
			entry.Username = u.Username
		}
	}
	return entry
}

func (m *MemoryStore) RecentActivity(_ context.Context, limit int) ([]domain.ActivityEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	res := make([]domain.ActivityEntry, 0, limit)
	for i := len(m.activity) - 1; i >= 0 && len(res) < limit; i-- {
		res = append(res, m.decorate(m.activity[i]))
	}
	return res, nil
}

func (m *MemoryStore) EntityHistory(_ context.Context, entityType domain.EntityType, recordID uint) ([]domain.ActivityEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ActivityEntry, 0)
	for i := len(m.activity) - 1; i >= 0; i-- {
		entry := m.activity[i]
		if entry.EntityType != entityType || entry.EntityID == nil || *entry.EntityID != recordID {
			continue
		}
		res = append(res, m.decorate(entry))
	}
	return res, nil
}
