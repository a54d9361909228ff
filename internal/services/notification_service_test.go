package services

import (
	"context"
	"testing"

	"github.com/roamly-app/backend/internal/errs"
	"github.com/roamly-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	return m.Called(ctx, notification).Error(0)
}

func (m *mockNotificationRepo) GetByRecipientID(ctx context.Context, recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	args := m.Called(ctx, recipientID, page, limit)
	return args.Get(0).([]models.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *mockNotificationRepo) GetUnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, id, recipientID uint) error {
	return m.Called(ctx, id, recipientID).Error(0)
}

func (m *mockNotificationRepo) MarkAllAsRead(ctx context.Context, recipientID uint) error {
	return m.Called(ctx, recipientID).Error(0)
}

func (m *mockNotificationRepo) Delete(ctx context.Context, id, recipientID uint) error {
	return m.Called(ctx, id, recipientID).Error(0)
}

func TestListReturnsItemsWithCounts(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	repo.On("GetByRecipientID", ctx, uint(9), 1, 20).Return([]models.Notification{
		{ID: 2, RecipientID: 9, Type: models.NotificationStoryView},
		{ID: 1, RecipientID: 9, Type: models.NotificationNewStory, IsRead: true},
	}, int64(12), nil).Once()
	repo.On("GetUnreadCount", ctx, uint(9)).Return(int64(4), nil).Once()

	items, unread, total, err := svc.List(ctx, 9, 1, 20)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(4), unread)
	assert.Equal(t, int64(12), total)
}

func TestMarkReadNotOwned(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	repo.On("MarkAsRead", ctx, uint(3), uint(9)).Return(errs.ErrNotFound).Once()

	err := svc.MarkRead(ctx, 3, 9)

	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMarkAllReadClearsUnread(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	repo.On("MarkAllAsRead", ctx, uint(9)).Return(nil).Once()
	repo.On("GetUnreadCount", ctx, uint(9)).Return(int64(0), nil).Once()

	require.NoError(t, svc.MarkAllRead(ctx, 9))

	unread, err := svc.UnreadCount(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestUnreadCountWithoutCacheHitsRepo(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	repo.On("GetUnreadCount", ctx, uint(9)).Return(int64(7), nil).Twice()

	for i := 0; i < 2; i++ {
		unread, err := svc.UnreadCount(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, int64(7), unread)
	}
	repo.AssertExpectations(t)
}

func TestDeleteNotOwned(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	repo.On("Delete", ctx, uint(3), uint(9)).Return(errs.ErrNotFound).Once()

	err := svc.Delete(ctx, 3, 9)

	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateAppendsToLedger(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.RecipientID == 9 && n.Type == models.NotificationFollow
	})).Return(nil).Once()

	err := svc.Create(ctx, &models.Notification{RecipientID: 9, Type: models.NotificationFollow})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}
