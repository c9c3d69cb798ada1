package models

import (
	"sort"
	"strings"
	"time"
)

type ChatType string

const (
	ChatOneToOne ChatType = "ONE_TO_ONE"
	ChatGroup    ChatType = "GROUP"
)

const (
	MessageTypeSystem = "SYSTEM"

	LastMessageImage   = "[Image]"
	LastMessageCreated = "Group created."
)

type Chat struct {
	RoomID               string           `bson:"_id" json:"roomId"`
	Type                 ChatType         `bson:"type" json:"type"`
	GroupName            string           `bson:"groupName,omitempty" json:"groupName,omitempty"`
	AdminID              string           `bson:"adminId,omitempty" json:"adminId,omitempty"`
	ParticipantIDs       []string         `bson:"participantIds" json:"participantIds"`
	UnreadCount          map[string]int64 `bson:"unreadCount" json:"unreadCount"`
	LastMessage          string           `bson:"lastMessage" json:"lastMessage"`
	LastMessageTimestamp time.Time        `bson:"lastMessageTimestamp" json:"lastMessageTimestamp"`
	GroupImageURL        string           `bson:"groupImageUrl,omitempty" json:"groupImageUrl,omitempty"`
}

func (c *Chat) Normalize() {
	if c.ParticipantIDs == nil {
		c.ParticipantIDs = []string{}
	}
	if c.UnreadCount == nil {
		c.UnreadCount = map[string]int64{}
	}
}

func (c *Chat) IsGroup() bool { return c.Type == ChatGroup }

func (c *Chat) HasParticipant(userID string) bool {
	return contains(c.ParticipantIDs, userID)
}

// OtherParticipant returns the first participant that is not userID.
func (c *Chat) OtherParticipant(userID string) (string, bool) {
	for _, id := range c.ParticipantIDs {
		if id != userID {
			return id, true
		}
	}
	return "", false
}

// UnreadRecipients lists who gets unread += 1 when sender posts to the room.
func (c *Chat) UnreadRecipients(senderID string) []string {
	if !c.IsGroup() {
		if id, ok := OtherInRoomID(c.RoomID, senderID); ok {
			return []string{id}
		}
		if id, ok := c.OtherParticipant(senderID); ok {
			return []string{id}
		}
		return nil
	}
	out := make([]string, 0, len(c.ParticipantIDs))
	for _, id := range c.ParticipantIDs {
		if id != senderID {
			out = append(out, id)
		}
	}
	return out
}

// ChatRoomID is the deterministic id of the one-to-one room between a and b.
func ChatRoomID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

// OtherInRoomID derives the counterpart from a one-to-one room id.
func OtherInRoomID(roomID, userID string) (string, bool) {
	parts := strings.Split(roomID, "_")
	if len(parts) != 2 {
		return "", false
	}
	switch userID {
	case parts[0]:
		return parts[1], true
	case parts[1]:
		return parts[0], true
	}
	return "", false
}

type Message struct {
	MessageID string     `bson:"_id" json:"messageId"`
	RoomID    string     `bson:"roomId" json:"roomId"`
	SenderID  string     `bson:"senderId" json:"senderId"`
	Content   *string    `bson:"content,omitempty" json:"content,omitempty"`
	Media     *MediaInfo `bson:"media,omitempty" json:"media,omitempty"`
	Type      string     `bson:"type,omitempty" json:"type,omitempty"`
	Timestamp time.Time  `bson:"timestamp" json:"timestamp"`
}

func (m *Message) IsSystem() bool { return m.Type == MessageTypeSystem }

// Preview is the room's lastMessage text after m is sent.
func (m *Message) Preview() string {
	if m.Media != nil {
		return LastMessageImage
	}
	if m.Content != nil {
		return *m.Content
	}
	return ""
}

type CallStatus string

const (
	CallRinging  CallStatus = "RINGING"
	CallOngoing  CallStatus = "ONGOING"
	CallEnded    CallStatus = "ENDED"
	CallMissed   CallStatus = "MISSED"
	CallDeclined CallStatus = "DECLINED"
)

type Call struct {
	CallID       string     `bson:"_id" json:"callId"`
	RoomID       string     `bson:"roomId" json:"roomId"`
	CallerID     string     `bson:"callerId" json:"callerId"`
	RecipientIDs []string   `bson:"recipientIds" json:"recipientIds"`
	StartTime    time.Time  `bson:"startTime" json:"startTime"`
	EndTime      *time.Time `bson:"endTime,omitempty" json:"endTime,omitempty"`
	Duration     int64      `bson:"duration" json:"duration"`
	Status       CallStatus `bson:"status" json:"status"`
}
