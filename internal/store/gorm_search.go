package store

import (
	"context"

	"gorm.io/gorm"

	"maintvault/pkg/domain"
)

// SearchMaintenance composes the optional filters conjunctively over
// non-deleted records. Every value is a bound parameter.
func (s *GormStore) SearchMaintenance(ctx context.Context, f domain.SearchFilters) ([]domain.MaintenanceRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	q := s.db.WithContext(ctx).Model(&MaintenanceModel{}).Where("is_deleted = ?", false)
	if f.DateFrom != "" && f.DateTo != "" {
		q = q.Where("date BETWEEN ? AND ?", f.DateFrom, f.DateTo)
	}
	if f.Department != "" {
		q = q.Where("department = ?", f.Department)
	}
	if f.Keyword != "" {
		kw := "%" + f.Keyword + "%"
		q = q.Where(
			"(device LIKE ? OR procedures LIKE ? OR materials LIKE ? OR notes LIKE ? OR warnings LIKE ?)",
			kw, kw, kw, kw, kw,
		)
	}
	var models []MaintenanceModel
	if err := q.Order("id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return maintenanceSlice(models), nil
}

func (s *GormStore) periodBase(ctx context.Context, dateFrom, dateTo, department string) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&MaintenanceModel{}).
		Where("is_deleted = ?", false).
		Where("date BETWEEN ? AND ?", dateFrom, dateTo)
	if department != "" {
		q = q.Where("department = ?", department)
	}
	return q
}

// CountMaintenanceInPeriod counts active records in the inclusive range.
func (s *GormStore) CountMaintenanceInPeriod(ctx context.Context, dateFrom, dateTo, department string) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var count int64
	err := s.periodBase(ctx, dateFrom, dateTo, department).Count(&count).Error
	return count, err
}

// CountByDepartment groups active records in the range by department.
func (s *GormStore) CountByDepartment(ctx context.Context, dateFrom, dateTo string) ([]domain.CountRow, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var rows []domain.CountRow
	err := s.periodBase(ctx, dateFrom, dateTo, "").
		Select("department AS label, COUNT(*) AS count").
		Group("department").Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// CountByDeviceType groups by the record's type column.
func (s *GormStore) CountByDeviceType(ctx context.Context, dateFrom, dateTo, department string) ([]domain.CountRow, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var rows []domain.CountRow
	err := s.periodBase(ctx, dateFrom, dateTo, department).
		Select("type AS label, COUNT(*) AS count").
		Group("type").Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// CountByTechnician groups by technician.
func (s *GormStore) CountByTechnician(ctx context.Context, dateFrom, dateTo, department string) ([]domain.CountRow, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var rows []domain.CountRow
	err := s.periodBase(ctx, dateFrom, dateTo, department).
		Select("technician AS label, COUNT(*) AS count").
		Group("technician").Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// CountActiveMaintenance counts all non-deleted records.
func (s *GormStore) CountActiveMaintenance(ctx context.Context) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var count int64
	err := s.db.WithContext(ctx).Model(&MaintenanceModel{}).Where("is_deleted = ?", false).Count(&count).Error
	return count, err
}
