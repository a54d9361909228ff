package fanout

import (
	"context"

	"firebase.google.com/go/v4/messaging"
	"github.com/roamly-app/backend/internal/models"
)

// DeviceTokenSource resolves a user to their FCM registration token.
type DeviceTokenSource interface {
	GetUserByID(id uint) (*models.User, error)
}

// FCMPusher delivers mobile pushes through Firebase Cloud Messaging.
// Users without a registered device token are skipped.
type FCMPusher struct {
	client *messaging.Client
	users  DeviceTokenSource
}

func NewFCMPusher(client *messaging.Client, users DeviceTokenSource) *FCMPusher {
	return &FCMPusher{client: client, users: users}
}

func (p *FCMPusher) Push(ctx context.Context, userID uint, title, body string, data map[string]string) error {
	user, err := p.users.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user.DeviceToken == "" {
		return nil
	}
	_, err = p.client.Send(ctx, &messaging.Message{
		Token: user.DeviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	return err
}
