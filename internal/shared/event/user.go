// Package event holds the topic names and JSON payloads exchanged between
// modules over the message broker.
package event

const (
	UserRegisteredDestination          string = "user_registered"
	UserRegisteredConsumerNotification string = "user_registered_notification"
	UserFollowedDestination            string = "user_followed"
	UserFollowedConsumerNotification   string = "user_followed_notification"
)

type UserRegisteredMessage struct {
	UserID   int64  `json:"user_id,string" validate:"required,gt=0"`
	Username string `json:"username" validate:"required,email"`
	Name     string `json:"name"`
}

type UserFollowedMessage struct {
	FollowerID     int64  `json:"follower_id,string" validate:"required,gt=0"`
	FollowerName   string `json:"follower_name"`
	FollowingID    int64  `json:"following_id,string" validate:"required,gt=0"`
	FollowingEmail string `json:"following_email" validate:"required,email"`
}
