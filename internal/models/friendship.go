package models

import (
	"sort"
	"time"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
)

type Friendship struct {
	ID             string           `bson:"_id" json:"id"`
	UserAID        string           `bson:"userAId" json:"userAId"` // requester
	UserBID        string           `bson:"userBId" json:"userBId"`
	ParticipantIDs []string         `bson:"participantIds" json:"participantIds"`
	Status         FriendshipStatus `bson:"status" json:"status"`
	CreatedAt      time.Time        `bson:"createdAt" json:"createdAt"`
}

// NewFriendship builds a pending request from requester to addressee.
func NewFriendship(requester, addressee string, now time.Time) *Friendship {
	ids := []string{requester, addressee}
	sort.Strings(ids)
	return &Friendship{
		ID:             ChatRoomID(requester, addressee),
		UserAID:        requester,
		UserBID:        addressee,
		ParticipantIDs: ids,
		Status:         FriendshipPending,
		CreatedAt:      now,
	}
}

type Credentials struct {
	UserID       string    `bson:"_id" json:"userId"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
