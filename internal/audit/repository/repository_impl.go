package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/storefront/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Insert appends one entry; audit rows are never updated.
func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO audit_logs (id, actor_type, actor_id, action, target_type, target_id, metadata, ip_address, user_agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ActorType, entry.ActorID, entry.Action, entry.TargetType, entry.TargetID,
		entry.Metadata, entry.IPAddress, entry.UserAgent, entry.CreatedAt,
	).Error
}

// List returns the newest entries first, one row past Limit so callers can
// tell whether another page exists.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	stmt := whereFilter(db.WithContext(ctx).Model(&domain.AuditLog{}), filter)
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID)
	}
	stmt = stmt.Order("created_at DESC, id DESC")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	var logs []*domain.AuditLog
	if err := stmt.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// History returns the trail of a single target oldest first.
func (r *repo) History(ctx context.Context, db *gorm.DB, targetType, targetID string, limit int) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	err := db.WithContext(ctx).Raw(
		`SELECT id, actor_type, actor_id, action, target_type, target_id, metadata, ip_address, user_agent, created_at
		 FROM audit_logs
		 WHERE target_type = ? AND target_id = ?
		 ORDER BY created_at ASC, id ASC
		 LIMIT ?`,
		targetType, targetID, limit,
	).Scan(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func whereFilter(stmt *gorm.DB, filter domain.ListFilter) *gorm.DB {
	equals := []struct {
		column string
		value  string
	}{
		{"action", filter.Action},
		{"target_type", filter.TargetType},
		{"target_id", filter.TargetID},
		{"actor_type", filter.ActorType},
	}
	for _, cond := range equals {
		if value := strings.TrimSpace(cond.value); value != "" {
			stmt = stmt.Where(cond.column+" = ?", value)
		}
	}
	if filter.StartAt != nil {
		stmt = stmt.Where("created_at >= ?", filter.StartAt.UTC())
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("created_at <= ?", filter.EndAt.UTC())
	}
	return stmt
}
