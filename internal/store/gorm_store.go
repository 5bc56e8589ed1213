package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"maintvault/pkg/domain"
)

var _ Store = (*GormStore)(nil)

// GormStore implements Store using GORM + MySQL. It owns the connection
// pool; construct it once at startup and inject it into callers.
type GormStore struct {
	db        *gorm.DB
	opTimeout time.Duration
}

// Options configure the pool owned by the store.
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// OpTimeout bounds every operation, including the wait for a pooled
	// connection. Zero falls back to 10s.
	OpTimeout time.Duration
}

// NewGormStore opens the pool, pings it, and runs auto-migrations.
// A failure here is a startup condition: callers must treat it as fatal
// instead of retrying per operation.
func NewGormStore(opts Options) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(opts.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrStoreUnavailable, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: ping: %v", ErrStoreUnavailable, err)
	}
	if err := db.AutoMigrate(
		&RoleModel{}, &DepartmentModel{}, &UserModel{},
		&MaintenanceModel{}, &AttachmentModel{}, &ActivityLogModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := seedRoles(db); err != nil {
		return nil, fmt.Errorf("seed roles: %w", err)
	}
	opTimeout := opts.OpTimeout
	if opTimeout <= 0 {
		opTimeout = 10 * time.Second
	}
	return &GormStore{db: db, opTimeout: opTimeout}, nil
}

func seedRoles(db *gorm.DB) error {
	for _, name := range []domain.RoleName{domain.RoleAdmin, domain.RoleUser} {
		role := RoleModel{RoleName: string(name)}
		if err := db.Where("role_name = ?", string(name)).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close tears down the pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// opCtx bounds one logical operation so pool acquisition cannot block
// indefinitely.
func (s *GormStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// logActivity appends one audit row inside the caller's transaction.
// actorID zero records a system-initiated action (NULL user).
func logActivity(tx *gorm.DB, actorID uint, action domain.Action, entityType domain.EntityType, recordID *uint, description string) error {
	entry := ActivityLogModel{
		Action:      string(action),
		RecordType:  string(entityType),
		RecordID:    recordID,
		Description: description,
	}
	if actorID != 0 {
		actor := actorID
		entry.UserID = &actor
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}
