package store

import (
	"context"
	"errors"
	"testing"

	"maintvault/pkg/domain"
)

func testRecord(device, department string) domain.MaintenanceRecord {
	return domain.MaintenanceRecord{
		Date:       "2024-03-01",
		Type:       "pump",
		Device:     device,
		Technician: "sami",
		Procedures: "replaced seal",
		Department: department,
	}
}

func mustCreateRecord(t *testing.T, s *MemoryStore, rec domain.MaintenanceRecord) uint {
	t.Helper()
	id, err := s.CreateMaintenance(context.Background(), rec, 1)
	if err != nil {
		t.Fatalf("create maintenance: %v", err)
	}
	return id
}

func activityCount(t *testing.T, s *MemoryStore) int {
	t.Helper()
	entries, err := s.RecentActivity(context.Background(), 1000)
	if err != nil {
		t.Fatalf("recent activity: %v", err)
	}
	return len(entries)
}

func TestMaintenanceTrashLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := mustCreateRecord(t, s, testRecord("chiller A", "Radiology"))

	if err := s.TrashMaintenance(ctx, id, 1); err != nil {
		t.Fatalf("trash: %v", err)
	}
	active, _ := s.ListMaintenance(ctx, "")
	if len(active) != 0 {
		t.Fatalf("active list = %d records, want 0 after trash", len(active))
	}
	trash, _ := s.ListMaintenanceTrash(ctx)
	if len(trash) != 1 || trash[0].ID != id {
		t.Fatalf("trash list = %+v, want the trashed record", trash)
	}

	// trashing again is a no-op and must not log
	before := activityCount(t, s)
	if err := s.TrashMaintenance(ctx, id, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double trash err = %v, want ErrNotFound", err)
	}
	if after := activityCount(t, s); after != before {
		t.Fatalf("double trash logged an entry (%d -> %d)", before, after)
	}

	if err := s.RestoreMaintenance(ctx, id, 1); err != nil {
		t.Fatalf("restore: %v", err)
	}
	active, _ = s.ListMaintenance(ctx, "")
	if len(active) != 1 || active[0].ID != id {
		t.Fatalf("active list after restore = %+v", active)
	}
	trash, _ = s.ListMaintenanceTrash(ctx)
	if len(trash) != 0 {
		t.Fatalf("trash list after restore = %d records, want 0", len(trash))
	}
}

func TestPurgeRequiresTrashedState(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := mustCreateRecord(t, s, testRecord("x-ray", "Radiology"))

	if err := s.PurgeMaintenance(ctx, id, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("purge of active record err = %v, want ErrNotFound", err)
	}
	if err := s.TrashMaintenance(ctx, id, 1); err != nil {
		t.Fatalf("trash: %v", err)
	}
	if err := s.PurgeMaintenance(ctx, id, 1); err != nil {
		t.Fatalf("purge: %v", err)
	}
	trash, _ := s.ListMaintenanceTrash(ctx)
	if len(trash) != 0 {
		t.Fatalf("trash still holds %d records after purge", len(trash))
	}
}

func TestEveryMutationLogsExactlyOneEntry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := mustCreateRecord(t, s, testRecord("ventilator", "ICU"))

	rec := testRecord("ventilator B", "ICU")
	rec.ID = id
	if err := s.UpdateMaintenance(ctx, rec, 7); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.TrashMaintenance(ctx, id, 7); err != nil {
		t.Fatalf("trash: %v", err)
	}
	if err := s.RestoreMaintenance(ctx, id, 7); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := s.TrashMaintenance(ctx, id, 7); err != nil {
		t.Fatalf("trash again: %v", err)
	}
	if err := s.PurgeMaintenance(ctx, id, 7); err != nil {
		t.Fatalf("purge: %v", err)
	}

	history, err := s.EntityHistory(ctx, domain.EntityMaintenance, id)
	if err != nil {
		t.Fatalf("entity history: %v", err)
	}
	wantActions := []domain.Action{
		domain.ActionDelete, domain.ActionTrash, domain.ActionRestore,
		domain.ActionTrash, domain.ActionUpdate, domain.ActionInsert,
	}
	if len(history) != len(wantActions) {
		t.Fatalf("history has %d entries, want %d", len(history), len(wantActions))
	}
	for i, want := range wantActions {
		if history[i].Action != want {
			t.Fatalf("history[%d].Action = %s, want %s", i, history[i].Action, want)
		}
		if history[i].EntityID == nil || *history[i].EntityID != id {
			t.Fatalf("history[%d].EntityID = %v, want %d", i, history[i].EntityID, id)
		}
	}
}

func TestSearchKeywordMatchesAcrossColumns(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	inDevice := testRecord("PUMP station", "ICU")
	inNotes := testRecord("boiler", "ICU")
	inNotes.Notes = "replaced the pump bearing"
	noMatch := testRecord("scanner", "ICU")
	trashed := testRecord("pump backup", "ICU")

	idDevice := mustCreateRecord(t, s, inDevice)
	idNotes := mustCreateRecord(t, s, inNotes)
	mustCreateRecord(t, s, noMatch)
	idTrashed := mustCreateRecord(t, s, trashed)
	if err := s.TrashMaintenance(ctx, idTrashed, 1); err != nil {
		t.Fatalf("trash: %v", err)
	}

	res, err := s.SearchMaintenance(ctx, domain.SearchFilters{Keyword: "pump"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("search returned %d records, want 2: %+v", len(res), res)
	}
	// ordered by id descending
	if res[0].ID != idNotes || res[1].ID != idDevice {
		t.Fatalf("search order = [%d %d], want [%d %d]", res[0].ID, res[1].ID, idNotes, idDevice)
	}
}

func TestSearchEmptyFiltersReturnsAllActiveNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	first := mustCreateRecord(t, s, testRecord("a", "ICU"))
	second := mustCreateRecord(t, s, testRecord("b", "ICU"))

	res, err := s.SearchMaintenance(ctx, domain.SearchFilters{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 2 || res[0].ID != second || res[1].ID != first {
		t.Fatalf("search({}) = %+v, want both records newest first", res)
	}
}

func TestSearchComposesDateDepartmentAndKeyword(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	match := testRecord("pump", "ICU")
	match.Date = "2024-02-10"
	wrongDept := testRecord("pump", "Radiology")
	wrongDept.Date = "2024-02-10"
	wrongDate := testRecord("pump", "ICU")
	wrongDate.Date = "2024-05-01"

	want := mustCreateRecord(t, s, match)
	mustCreateRecord(t, s, wrongDept)
	mustCreateRecord(t, s, wrongDate)

	res, err := s.SearchMaintenance(ctx, domain.SearchFilters{
		DateFrom: "2024-02-01", DateTo: "2024-02-28",
		Department: "ICU", Keyword: "PUMP",
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 || res[0].ID != want {
		t.Fatalf("search = %+v, want only record %d", res, want)
	}
}

func TestCreateUserRejectsDuplicateAndUnknownRole(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := domain.User{Username: "huda", PasswordHash: "h", Role: domain.RoleAdmin, Department: "IT"}
	if _, err := s.CreateUser(ctx, u, 0); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.CreateUser(ctx, u, 0); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username err = %v, want ErrUsernameTaken", err)
	}
	bad := domain.User{Username: "x", PasswordHash: "h", Role: "superadmin", Department: "IT"}
	if _, err := s.CreateUser(ctx, bad, 0); !errors.Is(err, ErrRoleUnknown) {
		t.Fatalf("unknown role err = %v, want ErrRoleUnknown", err)
	}
}

func TestUsernameStaysReservedWhileInTrash(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := domain.User{Username: "huda", PasswordHash: "h", Role: domain.RoleUser, Department: "IT"}
	id, err := s.CreateUser(ctx, u, 0)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.TrashUser(ctx, id, 99); err != nil {
		t.Fatalf("trash user: %v", err)
	}
	if _, err := s.CreateUser(ctx, u, 0); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("reuse of trashed username err = %v, want ErrUsernameTaken", err)
	}
}

func TestUpdateUserKeepsPasswordWhenEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id, err := s.CreateUser(ctx, domain.User{Username: "huda", PasswordHash: "old", Role: domain.RoleUser, Department: "IT"}, 0)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.UpdateUser(ctx, id, domain.RoleAdmin, "Radiology", "", 1); err != nil {
		t.Fatalf("update user: %v", err)
	}
	u, ok, _ := s.GetUserByUsername(ctx, "huda")
	if !ok || u.PasswordHash != "old" {
		t.Fatalf("password hash = %q, want unchanged %q", u.PasswordHash, "old")
	}
	if u.Role != domain.RoleAdmin || u.Department != "Radiology" {
		t.Fatalf("role/department = %s/%s, want admin/Radiology", u.Role, u.Department)
	}
	if err := s.UpdateUser(ctx, id, domain.RoleAdmin, "Radiology", "new", 1); err != nil {
		t.Fatalf("update user with password: %v", err)
	}
	u, _, _ = s.GetUserByUsername(ctx, "huda")
	if u.PasswordHash != "new" {
		t.Fatalf("password hash = %q, want %q", u.PasswordHash, "new")
	}
}

func TestDeleteDepartmentGuard(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	deptID, err := s.CreateDepartment(ctx, "ICU", 1)
	if err != nil {
		t.Fatalf("create department: %v", err)
	}
	recID := mustCreateRecord(t, s, testRecord("pump", "ICU"))

	err = s.DeleteDepartment(ctx, deptID, 1)
	var inUse *DepartmentInUseError
	if !errors.As(err, &inUse) {
		t.Fatalf("delete referenced department err = %v, want DepartmentInUseError", err)
	}
	if inUse.Name != "ICU" || inUse.Reason == "" {
		t.Fatalf("refusal = %+v, want name and reason", inUse)
	}
	// refusal left everything unchanged
	if _, ok, _ := s.GetDepartmentID(ctx, "ICU"); !ok {
		t.Fatalf("department vanished after refused delete")
	}
	active, _ := s.ListMaintenance(ctx, "ICU")
	if len(active) != 1 {
		t.Fatalf("maintenance rows changed after refused delete")
	}

	// a soft-deleted reference no longer blocks
	if err := s.TrashMaintenance(ctx, recID, 1); err != nil {
		t.Fatalf("trash: %v", err)
	}
	if err := s.DeleteDepartment(ctx, deptID, 1); err != nil {
		t.Fatalf("delete unreferenced department: %v", err)
	}
	if _, ok, _ := s.GetDepartmentID(ctx, "ICU"); ok {
		t.Fatalf("department still resolvable after delete")
	}
}

func TestDeleteDepartmentBlockedByActiveUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	deptID, _ := s.CreateDepartment(ctx, "IT", 1)
	if _, err := s.CreateUser(ctx, domain.User{Username: "omar", PasswordHash: "h", Role: domain.RoleUser, Department: "IT"}, 1); err != nil {
		t.Fatalf("create user: %v", err)
	}
	var inUse *DepartmentInUseError
	if err := s.DeleteDepartment(ctx, deptID, 1); !errors.As(err, &inUse) {
		t.Fatalf("err = %v, want DepartmentInUseError", err)
	}
}

func TestRecentActivityShowsDeletedUserPlaceholder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	adminID, _ := s.CreateUser(ctx, domain.User{Username: "admin", PasswordHash: "h", Role: domain.RoleAdmin, Department: "IT"}, 0)
	ghostID, _ := s.CreateUser(ctx, domain.User{Username: "ghost", PasswordHash: "h", Role: domain.RoleUser, Department: "IT"}, adminID)

	mustCreateRecordWithActor(t, s, ghostID)
	if err := s.TrashUser(ctx, ghostID, adminID); err != nil {
		t.Fatalf("trash user: %v", err)
	}
	if err := s.PurgeUser(ctx, ghostID, adminID); err != nil {
		t.Fatalf("purge user: %v", err)
	}

	entries, err := s.RecentActivity(ctx, 10)
	if err != nil {
		t.Fatalf("recent activity: %v", err)
	}
	var sawPlaceholder, sawAdmin bool
	for _, e := range entries {
		switch e.Username {
		case domain.DeletedUserLabel:
			sawPlaceholder = true
		case "admin":
			sawAdmin = true
		}
	}
	if !sawPlaceholder {
		t.Fatalf("no entry fell back to %q after actor purge", domain.DeletedUserLabel)
	}
	if !sawAdmin {
		t.Fatalf("entries by a live actor should show their username")
	}
}

func mustCreateRecordWithActor(t *testing.T, s *MemoryStore, actorID uint) uint {
	t.Helper()
	id, err := s.CreateMaintenance(context.Background(), testRecord("pump", "IT"), actorID)
	if err != nil {
		t.Fatalf("create maintenance: %v", err)
	}
	return id
}

func TestCountRollupsRespectDateAndDepartment(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, spec := range []struct{ date, dept, typ, tech string }{
		{"2024-01-02", "ICU", "pump", "sami"},
		{"2024-01-05", "ICU", "pump", "noor"},
		{"2024-01-07", "Radiology", "scanner", "sami"},
		{"2024-06-01", "ICU", "pump", "sami"}, // outside range
	} {
		rec := testRecord("dev", spec.dept)
		rec.Date = spec.date
		rec.Type = spec.typ
		rec.Technician = spec.tech
		mustCreateRecord(t, s, rec)
	}

	count, err := s.CountMaintenanceInPeriod(ctx, "2024-01-01", "2024-01-31", "")
	if err != nil {
		t.Fatalf("count in period: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	count, _ = s.CountMaintenanceInPeriod(ctx, "2024-01-01", "2024-01-31", "ICU")
	if count != 2 {
		t.Fatalf("ICU count = %d, want 2", count)
	}

	byDept, err := s.CountByDepartment(ctx, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("count by department: %v", err)
	}
	if len(byDept) != 2 || byDept[0].Label != "ICU" || byDept[0].Count != 2 {
		t.Fatalf("byDept = %+v, want ICU first with 2", byDept)
	}

	byTech, err := s.CountByTechnician(ctx, "2024-01-01", "2024-01-31", "")
	if err != nil {
		t.Fatalf("count by technician: %v", err)
	}
	if len(byTech) != 2 || byTech[0].Label != "sami" || byTech[0].Count != 2 {
		t.Fatalf("byTech = %+v, want sami first with 2", byTech)
	}
}

func TestAttachmentRowLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	recID := mustCreateRecord(t, s, testRecord("pump", "ICU"))

	att := domain.Attachment{MaintenanceID: recID, OriginalFilename: "report.pdf", StoredPath: "/tmp/abc.pdf"}
	id, err := s.CreateAttachment(ctx, att, 1)
	if err != nil {
		t.Fatalf("create attachment: %v", err)
	}
	list, _ := s.ListAttachments(ctx, recID)
	if len(list) != 1 || list[0].OriginalFilename != "report.pdf" {
		t.Fatalf("attachments = %+v", list)
	}
	if err := s.DeleteAttachmentRow(ctx, id, 1); err != nil {
		t.Fatalf("delete attachment row: %v", err)
	}
	if err := s.DeleteAttachmentRow(ctx, id, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}
