package repository

import (
	"context"
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormNoticeRepository is a GORM implementation of NoticeRepository
type GormNoticeRepository struct {
	db *gorm.DB
}

// NewNoticeRepository creates a new NoticeRepository
func NewNoticeRepository(db *gorm.DB) NoticeRepository {
	return &GormNoticeRepository{db: db}
}

func fillNotice(notice *models.Notice) {
	notice.Recipients = make([]uint64, len(notice.RecipientRows))
	for i, row := range notice.RecipientRows {
		notice.Recipients[i] = row.UserID
	}
	notice.ReadBy = make([]uint64, len(notice.ReadRows))
	for i, row := range notice.ReadRows {
		notice.ReadBy[i] = row.UserID
	}
}

// Create stores a notice with its recipients
func (r *GormNoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	notice.RecipientRows = make([]models.NoticeRecipient, len(notice.Recipients))
	for i, userID := range notice.Recipients {
		notice.RecipientRows[i] = models.NoticeRecipient{UserID: userID}
	}
	if err := r.db.WithContext(ctx).Create(notice).Error; err != nil {
		return translate(err, "create notice")
	}
	fillNotice(notice)
	return nil
}

// ListUnread returns the unread notices of a user, newest first
func (r *GormNoticeRepository) ListUnread(ctx context.Context, userID uint64) ([]models.Notice, error) {
	recipientSubQuery := r.db.Model(&models.NoticeRecipient{}).
		Select("1").
		Where("notice_recipients.notice_id = notices.id").
		Where("notice_recipients.user_id = ?", userID)
	readSubQuery := r.db.Model(&models.NoticeRead{}).
		Select("1").
		Where("notice_reads.notice_id = notices.id").
		Where("notice_reads.user_id = ?", userID)

	var notices []models.Notice
	err := r.db.WithContext(ctx).
		Preload("RecipientRows").
		Preload("ReadRows").
		Where("EXISTS (?)", recipientSubQuery).
		Where("NOT EXISTS (?)", readSubQuery).
		Order("notices.created_at DESC, notices.id DESC").
		Find(&notices).Error
	if err != nil {
		return nil, translate(err, "list notices")
	}

	for i := range notices {
		fillNotice(&notices[i])
	}
	return notices, nil
}

// MarkRead marks one notice as read by a recipient
func (r *GormNoticeRepository) MarkRead(ctx context.Context, noticeID, userID uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.NoticeRecipient{}).
			Where("notice_id = ? AND user_id = ?", noticeID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		read := models.NoticeRead{NoticeID: noticeID, UserID: userID, ReadAt: time.Now()}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&read).Error
	})
	return translate(err, "mark notice read")
}

// MarkAllRead marks every notice addressed to a user as read
func (r *GormNoticeRepository) MarkAllRead(ctx context.Context, userID uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var noticeIDs []uint64
		if err := tx.Model(&models.NoticeRecipient{}).
			Where("user_id = ?", userID).
			Pluck("notice_id", &noticeIDs).Error; err != nil {
			return err
		}
		if len(noticeIDs) == 0 {
			return nil
		}

		now := time.Now()
		reads := make([]models.NoticeRead, len(noticeIDs))
		for i, id := range noticeIDs {
			reads[i] = models.NoticeRead{NoticeID: id, UserID: userID, ReadAt: now}
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&reads).Error
	})
	return translate(err, "mark all notices read")
}
