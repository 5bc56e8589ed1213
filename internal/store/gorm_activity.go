package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"maintvault/pkg/domain"
)

type activityRow struct {
	ID          uint
	UserID      *uint
	Username    string
	Action      string
	RecordType  string
	RecordID    *uint
	Description string
	Timestamp   time.Time
}

func activityFromRow(r activityRow) domain.ActivityEntry {
	return domain.ActivityEntry{
		ID:          r.ID,
		ActorID:     r.UserID,
		Username:    r.Username,
		Action:      domain.Action(r.Action),
		EntityType:  domain.EntityType(r.RecordType),
		EntityID:    r.RecordID,
		Description: r.Description,
		Timestamp:   r.Timestamp,
	}
}

func (s *GormStore) activityQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&ActivityLogModel{}).
		Select("activity_log.id, activity_log.user_id, COALESCE(users.username, ?) AS username, "+
			"activity_log.action, activity_log.record_type, activity_log.record_id, "+
			"activity_log.description, activity_log.timestamp", domain.DeletedUserLabel).
		Joins("LEFT JOIN users ON users.id = activity_log.user_id").
		Order("activity_log.timestamp DESC, activity_log.id DESC")
}

// RecentActivity returns the newest entries with actor usernames, using
// the placeholder label where the actor row no longer exists.
func (s *GormStore) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	if limit <= 0 {
		limit = 100
	}
	var rows []activityRow
	if err := s.activityQuery(ctx).Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return activitySlice(rows), nil
}

// EntityHistory returns the full newest-first audit trail of one record.
func (s *GormStore) EntityHistory(ctx context.Context, entityType domain.EntityType, recordID uint) ([]domain.ActivityEntry, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	var rows []activityRow
	if err := s.activityQuery(ctx).
		Where("activity_log.record_type = ? AND activity_log.record_id = ?", string(entityType), recordID).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return activitySlice(rows), nil
}

func activitySlice(rows []activityRow) []domain.ActivityEntry {
	res := make([]domain.ActivityEntry, 0, len(rows))
	for _, r := range rows {
		res = append(res, activityFromRow(r))
	}
	return res
}
