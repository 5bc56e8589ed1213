package store

import "gorm.io/gorm"

// departmentInUse is the referential-integrity guard for the text-typed
// department references. User.department and maintenance.department are
// matched by name, not foreign key, so this is the single place that
// performs name-based reference lookups. It must run inside the same
// transaction as the delete it protects.
func departmentInUse(tx *gorm.DB, name string) (string, error) {
	var users int64
	if err := tx.Model(&UserModel{}).
		Where("department = ? AND is_deleted = ?", name, false).
		Count(&users).Error; err != nil {
		return "", err
	}
	if users > 0 {
		return "it is assigned to active users", nil
	}
	var records int64
	if err := tx.Model(&MaintenanceModel{}).
		Where("department = ? AND is_deleted = ?", name, false).
		Count(&records).Error; err != nil {
		return "", err
	}
	if records > 0 {
		return "it is referenced by maintenance records", nil
	}
	return "", nil
}
