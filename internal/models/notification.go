package models

import "time"

type NotificationType string

const (
	NotificationFollow  NotificationType = "FOLLOW"
	NotificationLike    NotificationType = "LIKE"
	NotificationComment NotificationType = "COMMENT"
)

type Notification struct {
	NotificationID string           `bson:"_id" json:"notificationId"`
	RecipientID    string           `bson:"recipientId" json:"recipientId"`
	SenderID       string           `bson:"senderId" json:"senderId"`
	Type           NotificationType `bson:"type" json:"type"`
	TargetID       string           `bson:"targetId" json:"targetId"`
	Message        string           `bson:"message" json:"message"`
	IsRead         bool             `bson:"isRead" json:"isRead"`
	Timestamp      time.Time        `bson:"timestamp" json:"timestamp"`
}

// NotificationKey identifies the notification produced by one social action,
// used to retract it when the action is undone.
type NotificationKey struct {
	RecipientID string
	SenderID    string
	Type        NotificationType
	TargetID    string
}

func (n *Notification) Key() NotificationKey {
	return NotificationKey{RecipientID: n.RecipientID, SenderID: n.SenderID, Type: n.Type, TargetID: n.TargetID}
}
