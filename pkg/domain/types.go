package domain

import "time"

// Action is the persisted activity-log action vocabulary. Consumers match
// on these exact strings; do not rename values without a data migration.
type Action string

const (
	ActionInsert  Action = "INSERT"
	ActionUpdate  Action = "UPDATE"
	ActionTrash   Action = "TRASH"
	ActionRestore Action = "RESTORE"
	ActionDelete  Action = "DELETE"
)

// EntityType tags which kind of record an activity-log entry refers to.
type EntityType string

const (
	EntityMaintenance EntityType = "maintenance"
	EntityUser        EntityType = "user"
	EntityDepartment  EntityType = "department"
	EntityAttachment  EntityType = "attachment"
)

// RoleName is the static role lookup vocabulary.
type RoleName string

const (
	RoleAdmin RoleName = "admin"
	RoleUser  RoleName = "user"
)

// DeletedUserLabel is shown for activity entries whose actor has been
// hard-deleted since the entry was written.
const DeletedUserLabel = "deleted user"

// DateLayout is the wire format for maintenance dates and range filters.
const DateLayout = "2006-01-02"

// MaintenanceRecord is one documented maintenance activity. Department is
// a name reference into Department, kept as text for dump compatibility.
type MaintenanceRecord struct {
	ID         uint   `json:"id"`
	Date       string `json:"date"`
	Type       string `json:"type"`
	Device     string `json:"device" validate:"required"`
	Technician string `json:"technician"`
	Procedures string `json:"procedures" validate:"required"`
	Materials  string `json:"materials"`
	Notes      string `json:"notes"`
	Warnings   string `json:"warnings"`
	Department string `json:"department" validate:"required"`
	Deleted    bool   `json:"deleted"`
}

// User is an application account. Username is immutable after creation.
type User struct {
	ID           uint     `json:"id"`
	Username     string   `json:"username" validate:"required"`
	PasswordHash string   `json:"-" validate:"required"`
	Role         RoleName `json:"role" validate:"required,oneof=admin user"`
	Department   string   `json:"department" validate:"required"`
	Deleted      bool     `json:"deleted"`
}

// Department groups devices and users by name.
type Department struct {
	ID   uint   `json:"id"`
	Name string `json:"name" validate:"required"`
}

// Attachment maps a display filename to its stored content location.
type Attachment struct {
	ID               uint   `json:"id"`
	MaintenanceID    uint   `json:"maintenanceId" validate:"required"`
	OriginalFilename string `json:"originalFilename" validate:"required"`
	StoredPath       string `json:"-" validate:"required"`
}

// ActivityEntry is one append-only audit record. ActorID survives the
// actor's deletion; Username falls back to DeletedUserLabel.
type ActivityEntry struct {
	ID          uint       `json:"id"`
	ActorID     *uint      `json:"actorId"`
	Username    string     `json:"username"`
	Action      Action     `json:"action"`
	EntityType  EntityType `json:"entityType"`
	EntityID    *uint      `json:"entityId"`
	Description string     `json:"description"`
	Timestamp   time.Time  `json:"timestamp"`
}

// SearchFilters compose conjunctively; zero values omit the predicate.
// The date range only applies when both ends are set.
type SearchFilters struct {
	DateFrom   string
	DateTo     string
	Department string
	Keyword    string
}

// CountRow is one aggregation bucket (department, device type, technician).
type CountRow struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}
