package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roamly-app/backend/internal/errs"
	"github.com/roamly-app/backend/internal/fanout"
	"github.com/roamly-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockStoryRepo struct {
	mock.Mock
}

func (m *mockStoryRepo) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStoryRepo) CreateStory(ctx context.Context, story *models.Story) error {
	return m.Called(ctx, story).Error(0)
}

func (m *mockStoryRepo) GetLiveByID(ctx context.Context, id string) (*models.Story, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Story), args.Error(1)
}

func (m *mockStoryRepo) GetActiveByOwner(ctx context.Context, ownerID uint) ([]models.Story, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]models.Story), args.Error(1)
}

func (m *mockStoryRepo) GetActiveByOwners(ctx context.Context, ownerIDs []uint) ([]models.Story, error) {
	args := m.Called(ctx, ownerIDs)
	return args.Get(0).([]models.Story), args.Error(1)
}

func (m *mockStoryRepo) AddView(ctx context.Context, id string, viewerID uint) (*models.Story, bool, error) {
	args := m.Called(ctx, id, viewerID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Story), args.Bool(1), args.Error(2)
}

func (m *mockStoryRepo) DeleteByID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockFollowing struct {
	mock.Mock
}

func (m *mockFollowing) GetFollowingIDs(userID uint) ([]uint, error) {
	args := m.Called(userID)
	return args.Get(0).([]uint), args.Error(1)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) GetUserByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUsers) GetUsersByIDs(ids []uint) ([]models.User, error) {
	args := m.Called(ids)
	return args.Get(0).([]models.User), args.Error(1)
}

type mockRouter struct {
	mock.Mock
}

func (m *mockRouter) Route(ctx context.Context, event fanout.Event) error {
	return m.Called(ctx, event).Error(0)
}

func newStoryServiceForTest() (*StoryService, *mockStoryRepo, *mockFollowing, *mockUsers, *mockRouter) {
	stories := new(mockStoryRepo)
	follows := new(mockFollowing)
	users := new(mockUsers)
	router := new(mockRouter)
	return NewStoryService(stories, follows, users, router), stories, follows, users, router
}

func TestCreateStoryDefaultsAndExpiry(t *testing.T) {
	svc, stories, _, users, router := newStoryServiceForTest()
	ctx := context.Background()

	stories.On("CreateStory", ctx, mock.AnythingOfType("*models.Story")).Run(func(args mock.Arguments) {
		story := args.Get(1).(*models.Story)
		story.ID = primitive.NewObjectID()
		story.CreatedAt = time.Now()
		story.ExpiresAt = story.CreatedAt.Add(24 * time.Hour)
	}).Return(nil).Once()
	users.On("GetUserByID", uint(1)).Return(&models.User{ID: 1, Name: "Ana"}, nil)
	router.On("Route", ctx, mock.MatchedBy(func(e fanout.Event) bool {
		return e.Kind == models.NotificationNewStory && e.ActorID == 1 && e.Broadcast
	})).Return(nil).Once()

	story, err := svc.CreateStory(ctx, 1, models.CreateStoryRequest{
		MediaURL: "https://cdn.example.com/beach.jpg",
		Type:     "image",
	})

	require.NoError(t, err)
	assert.Equal(t, defaultStoryDurationMs, story.DurationMs)
	assert.Equal(t, story.CreatedAt.Add(24*time.Hour), story.ExpiresAt)
	stories.AssertExpectations(t)
	router.AssertExpectations(t)
}

func TestCreateStoryMissingMedia(t *testing.T) {
	svc, stories, _, _, _ := newStoryServiceForTest()

	_, err := svc.CreateStory(context.Background(), 1, models.CreateStoryRequest{Type: "image"})

	assert.ErrorIs(t, err, errs.ErrValidation)
	stories.AssertNotCalled(t, "CreateStory", mock.Anything, mock.Anything)
}

func TestCreateStorySucceedsWhenFanOutFails(t *testing.T) {
	svc, stories, _, users, router := newStoryServiceForTest()
	ctx := context.Background()

	stories.On("CreateStory", ctx, mock.Anything).Return(nil).Once()
	users.On("GetUserByID", uint(1)).Return(&models.User{ID: 1, Name: "Ana"}, nil)
	router.On("Route", ctx, mock.Anything).Return(errors.New("followers unavailable")).Once()

	story, err := svc.CreateStory(ctx, 1, models.CreateStoryRequest{
		MediaURL: "https://cdn.example.com/beach.jpg",
		Type:     "image",
	})

	require.NoError(t, err)
	require.NotNil(t, story)
}

func TestAddViewFirstViewNotifiesOwnerOnly(t *testing.T) {
	svc, stories, _, users, router := newStoryServiceForTest()
	ctx := context.Background()
	story := &models.Story{UserID: 9, Views: []models.StoryView{{ViewerID: 5}}}

	stories.On("AddView", ctx, "abc", uint(5)).Return(story, true, nil).Once()
	users.On("GetUserByID", uint(5)).Return(&models.User{ID: 5, Name: "Ben"}, nil)
	router.On("Route", ctx, mock.MatchedBy(func(e fanout.Event) bool {
		return e.Kind == models.NotificationStoryView && e.ActorID == 5 && e.RecipientID == 9 && !e.Broadcast
	})).Return(nil).Once()

	count, err := svc.AddView(ctx, "abc", 5)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	router.AssertExpectations(t)
}

func TestAddViewRepeatIsIdempotent(t *testing.T) {
	svc, stories, _, _, router := newStoryServiceForTest()
	ctx := context.Background()
	story := &models.Story{UserID: 9, Views: []models.StoryView{{ViewerID: 5}}}

	stories.On("AddView", ctx, "abc", uint(5)).Return(story, false, nil).Once()

	count, err := svc.AddView(ctx, "abc", 5)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	router.AssertNotCalled(t, "Route", mock.Anything, mock.Anything)
}

func TestAddViewOwnStoryDoesNotNotify(t *testing.T) {
	svc, stories, _, _, router := newStoryServiceForTest()
	ctx := context.Background()
	story := &models.Story{UserID: 5, Views: []models.StoryView{{ViewerID: 5}}}

	stories.On("AddView", ctx, "abc", uint(5)).Return(story, true, nil).Once()

	count, err := svc.AddView(ctx, "abc", 5)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	router.AssertNotCalled(t, "Route", mock.Anything, mock.Anything)
}

func TestAddViewExpiredStory(t *testing.T) {
	svc, stories, _, _, _ := newStoryServiceForTest()
	ctx := context.Background()

	stories.On("AddView", ctx, "gone", uint(5)).Return(nil, false, errs.ErrNotFound).Once()

	_, err := svc.AddView(ctx, "gone", 5)

	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeleteStoryByNonOwner(t *testing.T) {
	svc, stories, _, _, _ := newStoryServiceForTest()
	ctx := context.Background()

	stories.On("GetLiveByID", ctx, "abc").Return(&models.Story{UserID: 9}, nil).Once()

	err := svc.DeleteStory(ctx, "abc", 5)

	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	stories.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestDeleteStoryByOwner(t *testing.T) {
	svc, stories, _, _, _ := newStoryServiceForTest()
	ctx := context.Background()

	stories.On("GetLiveByID", ctx, "abc").Return(&models.Story{UserID: 9}, nil).Once()
	stories.On("DeleteByID", ctx, "abc").Return(nil).Once()

	err := svc.DeleteStory(ctx, "abc", 9)

	require.NoError(t, err)
	stories.AssertExpectations(t)
}

func TestGetViewersOwnerOnly(t *testing.T) {
	svc, stories, _, users, _ := newStoryServiceForTest()
	ctx := context.Background()
	story := &models.Story{UserID: 9, Views: []models.StoryView{{ViewerID: 5}, {ViewerID: 6}}}

	stories.On("GetLiveByID", ctx, "abc").Return(story, nil)

	_, err := svc.GetViewers(ctx, "abc", 5)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	users.On("GetUsersByIDs", []uint{5, 6}).Return([]models.User{
		{ID: 5, Name: "Ben"},
		{ID: 6, Name: "Cara"},
	}, nil).Once()

	viewers, err := svc.GetViewers(ctx, "abc", 9)
	require.NoError(t, err)
	require.Len(t, viewers, 2)
	assert.Equal(t, "Ben", viewers[0].Viewer.Name)
	assert.Equal(t, "Cara", viewers[1].Viewer.Name)
}

func TestListFollowingFeedGroupsByOwner(t *testing.T) {
	svc, stories, follows, users, _ := newStoryServiceForTest()
	ctx := context.Background()

	follows.On("GetFollowingIDs", uint(1)).Return([]uint{2, 3}, nil).Once()
	stories.On("GetActiveByOwners", ctx, []uint{2, 3}).Return([]models.Story{
		{UserID: 2, Views: []models.StoryView{}},
		{UserID: 3, Views: []models.StoryView{{ViewerID: 1}}},
		{UserID: 2, Views: []models.StoryView{{ViewerID: 1}}},
	}, nil).Once()
	users.On("GetUsersByIDs", []uint{2, 3}).Return([]models.User{
		{ID: 2, Name: "Dana"},
		{ID: 3, Name: "Eli"},
	}, nil).Once()

	groups, err := svc.ListFollowingFeed(ctx, 1)

	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, uint(2), groups[0].Owner.ID)
	assert.Len(t, groups[0].Stories, 2)
	assert.True(t, groups[0].HasUnseen)

	assert.Equal(t, uint(3), groups[1].Owner.ID)
	assert.Len(t, groups[1].Stories, 1)
	assert.False(t, groups[1].HasUnseen)
}

func TestListFollowingFeedWithNoFollows(t *testing.T) {
	svc, stories, follows, users, _ := newStoryServiceForTest()
	ctx := context.Background()

	follows.On("GetFollowingIDs", uint(1)).Return([]uint{}, nil).Once()
	stories.On("GetActiveByOwners", ctx, []uint{}).Return([]models.Story{}, nil).Once()
	users.On("GetUsersByIDs", []uint{}).Return([]models.User{}, nil).Once()

	groups, err := svc.ListFollowingFeed(ctx, 1)

	require.NoError(t, err)
	assert.Empty(t, groups)
}
