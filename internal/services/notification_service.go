package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

var (
	ErrNoticeNotFound      = newError(ErrNotFound, "Notification not found")
	ErrInvalidNoticeTarget = newError(ErrValidation, "Provide a notification id or isReadType=all")
)

// NotificationService lists and acknowledges notices.
type NotificationService struct {
	notices repository.NoticeRepository
}

func NewNotificationService(notices repository.NoticeRepository) *NotificationService {
	return &NotificationService{notices: notices}
}

// GetNotificationList returns the user's unread notices, newest first.
func (s *NotificationService) GetNotificationList(ctx context.Context, userID uint64) ([]models.Notice, error) {
	notices, err := s.notices.ListUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notices, nil
}

// MarkNotificationRead marks one notice, or every notice when target is
// "all", as read by userID. Marking twice is a no-op.
func (s *NotificationService) MarkNotificationRead(ctx context.Context, userID uint64, target string) error {
	target = strings.TrimSpace(target)
	if strings.EqualFold(target, constants.ReadAllNotices) {
		if err := s.notices.MarkAllRead(ctx, userID); err != nil {
			return fmt.Errorf("failed to mark notifications read: %w", err)
		}
		return nil
	}

	noticeID, err := strconv.ParseUint(target, 10, 64)
	if err != nil || noticeID == 0 {
		return ErrInvalidNoticeTarget
	}

	if err := s.notices.MarkRead(ctx, noticeID, userID); err != nil {
		return lookup(err, ErrNoticeNotFound, "failed to mark notification read")
	}
	return nil
}

// NotifyInput describes a notice to send.
type NotifyInput struct {
	Text       string
	Type       models.NoticeType
	TaskID     *uint64
	Recipients []uint64
}

// Notify stores a notice for the recipients. No recipients means nothing is
// stored and nil is returned.
func (s *NotificationService) Notify(ctx context.Context, input NotifyInput) (*models.Notice, error) {
	recipients := uniqueUint64(input.Recipients)
	if len(recipients) == 0 {
		return nil, nil
	}
	if input.Type == "" {
		input.Type = models.NoticeTypeAlert
	}

	notice := &models.Notice{
		Text:       input.Text,
		NotiType:   input.Type,
		TaskID:     input.TaskID,
		Recipients: recipients,
		ReadBy:     []uint64{},
	}
	if err := s.notices.Create(ctx, notice); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return notice, nil
}

// uniqueUint64 drops zero and repeated ids, keeping first occurrences in order.
func uniqueUint64(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
