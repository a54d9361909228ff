package services

import (
	"context"
	"fmt"
	"log"

	"github.com/roamly-app/backend/internal/errs"
	"github.com/roamly-app/backend/internal/fanout"
	"github.com/roamly-app/backend/internal/models"
	"github.com/roamly-app/backend/internal/repositories"
)

const defaultStoryDurationMs = 5000

// EventRouter dispatches domain events to the fan-out router.
type EventRouter interface {
	Route(ctx context.Context, event fanout.Event) error
}

// FollowingSource resolves who a viewer follows.
type FollowingSource interface {
	GetFollowingIDs(userID uint) ([]uint, error)
}

// UserSource resolves user identities to display info.
type UserSource interface {
	GetUserByID(id uint) (*models.User, error)
	GetUsersByIDs(ids []uint) ([]models.User, error)
}

// StoryService owns the ephemeral story lifecycle: creation, visibility
// windowing and deduplicated view tracking. Expiry itself is delegated
// to the store's TTL index; the service never assumes an expired story
// still exists.
type StoryService struct {
	stories repositories.StoryRepository
	follows FollowingSource
	users   UserSource
	router  EventRouter
}

func NewStoryService(stories repositories.StoryRepository, follows FollowingSource, users UserSource, router EventRouter) *StoryService {
	return &StoryService{
		stories: stories,
		follows: follows,
		users:   users,
		router:  router,
	}
}

// CreateStory persists a new story with expiry = creation + 24h and
// announces it to the owner's followers. Fan-out failures never fail
// the creation.
func (s *StoryService) CreateStory(ctx context.Context, ownerID uint, req models.CreateStoryRequest) (*models.Story, error) {
	if req.MediaURL == "" {
		return nil, fmt.Errorf("%w: media reference is required", errs.ErrValidation)
	}

	durationMs := req.DurationMs
	if durationMs == 0 {
		durationMs = defaultStoryDurationMs
	}

	story := &models.Story{
		UserID: ownerID,
		Media: models.StoryMedia{
			URL:  req.MediaURL,
			Type: req.Type,
		},
		Caption:    req.Caption,
		DurationMs: durationMs,
		Locations:  req.Locations,
	}

	if err := s.stories.CreateStory(ctx, story); err != nil {
		return nil, err
	}

	ownerName := s.displayName(ownerID)
	if err := s.router.Route(ctx, fanout.Event{
		Kind:      models.NotificationNewStory,
		ActorID:   ownerID,
		Broadcast: true,
		Title:     "New story",
		Message:   ownerName + " posted a new story",
		Link:      "/stories/" + story.ID.Hex(),
		Payload:   map[string]any{"story_id": story.ID.Hex()},
	}); err != nil {
		log.Printf("stories: fan-out for story %s failed: %v", story.ID.Hex(), err)
	}

	return story, nil
}

// ListActive returns the owner's live stories, newest first.
func (s *StoryService) ListActive(ctx context.Context, ownerID uint) ([]models.Story, error) {
	return s.stories.GetActiveByOwner(ctx, ownerID)
}

// ListFollowingFeed returns the live stories of everyone the viewer
// follows, grouped by owner. Each group reports whether it still holds
// stories the viewer has not seen.
func (s *StoryService) ListFollowingFeed(ctx context.Context, viewerID uint) ([]models.StoryGroup, error) {
	followedIDs, err := s.follows.GetFollowingIDs(viewerID)
	if err != nil {
		return nil, err
	}

	stories, err := s.stories.GetActiveByOwners(ctx, followedIDs)
	if err != nil {
		return nil, err
	}

	// Group by owner, preserving the newest-first order of each owner's
	// most recent story.
	order := []uint{}
	grouped := map[uint][]models.Story{}
	unseen := map[uint]bool{}
	for _, story := range stories {
		if _, ok := grouped[story.UserID]; !ok {
			order = append(order, story.UserID)
		}
		grouped[story.UserID] = append(grouped[story.UserID], story)
		if !viewedBy(story, viewerID) {
			unseen[story.UserID] = true
		}
	}

	owners, err := s.users.GetUsersByIDs(order)
	if err != nil {
		return nil, err
	}
	ownerMap := make(map[uint]models.UserCompact, len(owners))
	for _, owner := range owners {
		ownerMap[owner.ID] = owner.ToCompact()
	}

	groups := make([]models.StoryGroup, 0, len(order))
	for _, ownerID := range order {
		groups = append(groups, models.StoryGroup{
			Owner:     ownerMap[ownerID],
			Stories:   grouped[ownerID],
			HasUnseen: unseen[ownerID],
		})
	}
	return groups, nil
}

// AddView records that viewerID saw the story and returns the view
// count. Recording is idempotent: a repeat view neither mutates state
// nor re-notifies the owner. The first view by anyone other than the
// owner notifies the owner only.
func (s *StoryService) AddView(ctx context.Context, storyID string, viewerID uint) (int, error) {
	story, added, err := s.stories.AddView(ctx, storyID, viewerID)
	if err != nil {
		return 0, err
	}

	if added && story.UserID != viewerID {
		viewerName := s.displayName(viewerID)
		if err := s.router.Route(ctx, fanout.Event{
			Kind:        models.NotificationStoryView,
			ActorID:     viewerID,
			RecipientID: story.UserID,
			Title:       "Story viewed",
			Message:     viewerName + " viewed your story",
			Link:        "/stories/" + storyID,
			Payload:     map[string]any{"story_id": storyID},
		}); err != nil {
			log.Printf("stories: view fan-out for story %s failed: %v", storyID, err)
		}
	}

	return len(story.Views), nil
}

// DeleteStory removes a story immediately. Owner only.
func (s *StoryService) DeleteStory(ctx context.Context, storyID string, requesterID uint) error {
	story, err := s.stories.GetLiveByID(ctx, storyID)
	if err != nil {
		return err
	}
	if story.UserID != requesterID {
		return errs.ErrUnauthorized
	}
	return s.stories.DeleteByID(ctx, storyID)
}

// GetViewers returns who viewed the story, with viewer identities
// resolved to display info. Owner only.
func (s *StoryService) GetViewers(ctx context.Context, storyID string, requesterID uint) ([]models.StoryViewer, error) {
	story, err := s.stories.GetLiveByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.UserID != requesterID {
		return nil, errs.ErrUnauthorized
	}

	viewerIDs := make([]uint, 0, len(story.Views))
	for _, v := range story.Views {
		viewerIDs = append(viewerIDs, v.ViewerID)
	}
	users, err := s.users.GetUsersByIDs(viewerIDs)
	if err != nil {
		return nil, err
	}
	userMap := make(map[uint]models.UserCompact, len(users))
	for _, u := range users {
		userMap[u.ID] = u.ToCompact()
	}

	viewers := make([]models.StoryViewer, 0, len(story.Views))
	for _, v := range story.Views {
		viewers = append(viewers, models.StoryViewer{
			Viewer:   userMap[v.ViewerID],
			ViewedAt: v.ViewedAt,
		})
	}
	return viewers, nil
}

func (s *StoryService) displayName(userID uint) string {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return "Someone"
	}
	return user.Name
}

func viewedBy(story models.Story, viewerID uint) bool {
	for _, v := range story.Views {
		if v.ViewerID == viewerID {
			return true
		}
	}
	return false
}
