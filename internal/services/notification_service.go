package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/roamly-app/backend/internal/models"
	"github.com/roamly-app/backend/internal/repositories"
)

const unreadCountTTL = 30 * time.Second

// NotificationService is the durable notification ledger. It fronts the
// repository with a short-lived unread-count cache; cache trouble always
// degrades to the database, never to the caller.
type NotificationService struct {
	repo  repositories.NotificationRepository
	cache *redis.Client // optional, may be nil
}

func NewNotificationService(repo repositories.NotificationRepository, cache *redis.Client) *NotificationService {
	return &NotificationService{repo: repo, cache: cache}
}

// Create appends a notification to the ledger. Used both by the fan-out
// router and by domain actions that record directly.
func (s *NotificationService) Create(ctx context.Context, notification *models.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}
	s.invalidateUnread(ctx, notification.RecipientID)
	return nil
}

// List returns one page of the recipient's notifications, newest first,
// along with the unread and total counts.
func (s *NotificationService) List(ctx context.Context, recipientID uint, page, limit int) ([]models.Notification, int64, int64, error) {
	items, total, err := s.repo.GetByRecipientID(ctx, recipientID, page, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	unread, err := s.UnreadCount(ctx, recipientID)
	if err != nil {
		return nil, 0, 0, err
	}
	return items, unread, total, nil
}

// MarkRead idempotently marks one of the recipient's notifications read.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uint) error {
	if err := s.repo.MarkAsRead(ctx, id, recipientID); err != nil {
		return err
	}
	s.invalidateUnread(ctx, recipientID)
	return nil
}

// MarkAllRead marks every unread notification of the recipient read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uint) error {
	if err := s.repo.MarkAllAsRead(ctx, recipientID); err != nil {
		return err
	}
	s.invalidateUnread(ctx, recipientID)
	return nil
}

// Delete removes one of the recipient's notifications.
func (s *NotificationService) Delete(ctx context.Context, id, recipientID uint) error {
	if err := s.repo.Delete(ctx, id, recipientID); err != nil {
		return err
	}
	s.invalidateUnread(ctx, recipientID)
	return nil
}

// UnreadCount serves the unread counter read-through from the cache.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	key := unreadKey(recipientID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			if count, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return count, nil
			}
		}
	}

	count, err := s.repo.GetUnreadCount(ctx, recipientID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, unreadCountTTL).Err(); err != nil {
			log.Printf("notifications: caching unread count for user %d failed: %v", recipientID, err)
		}
	}
	return count, nil
}

func (s *NotificationService) invalidateUnread(ctx context.Context, recipientID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, unreadKey(recipientID)).Err(); err != nil {
		log.Printf("notifications: invalidating unread count for user %d failed: %v", recipientID, err)
	}
}

func unreadKey(recipientID uint) string {
	return fmt.Sprintf("notif:unread:%d", recipientID)
}
