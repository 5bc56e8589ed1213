package store

import "time"

// GORM models used for persistence. Table names match the legacy dump
// format so backups restore across versions.

type MaintenanceModel struct {
	ID         uint   `gorm:"primaryKey"`
	Date       string `gorm:"type:date;not null"`
	Type       string `gorm:"size:100"`
	Device     string `gorm:"size:255;not null"`
	Technician string `gorm:"size:255"`
	Procedures string `gorm:"type:text;not null"`
	Materials  string `gorm:"type:text"`
	Notes      string `gorm:"type:text"`
	Warnings   string `gorm:"type:text"`
	Department string `gorm:"size:255;not null;index"`
	IsDeleted  bool   `gorm:"not null;default:false;index"`
}

func (MaintenanceModel) TableName() string { return "maintenance" }

type RoleModel struct {
	ID       uint   `gorm:"primaryKey"`
	RoleName string `gorm:"size:32;uniqueIndex;not null"`
}

func (RoleModel) TableName() string { return "roles" }

type UserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	RoleID       uint   `gorm:"not null"`
	Department   string `gorm:"size:255"`
	IsDeleted    bool   `gorm:"not null;default:false;index"`
}

func (UserModel) TableName() string { return "users" }

type DepartmentModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255;uniqueIndex;not null"`
}

func (DepartmentModel) TableName() string { return "departments" }

type AttachmentModel struct {
	ID               uint             `gorm:"primaryKey"`
	MaintenanceID    uint             `gorm:"not null;index"`
	OriginalFilename string           `gorm:"size:255;not null"`
	StoredFilepath   string           `gorm:"size:512;not null"`
	Maintenance      MaintenanceModel `gorm:"foreignKey:MaintenanceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (AttachmentModel) TableName() string { return "attachments" }

// ActivityLogModel is append-only. UserID has no foreign key so entries
// outlive their actor.
type ActivityLogModel struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      *uint     `gorm:"index"`
	Action      string    `gorm:"size:16;not null"`
	RecordType  string    `gorm:"size:32;not null;index:idx_activity_entity"`
	RecordID    *uint     `gorm:"index:idx_activity_entity"`
	Description string    `gorm:"type:text"`
	Timestamp   time.Time `gorm:"autoCreateTime;index"`
}

func (ActivityLogModel) TableName() string { return "activity_log" }
