package models

import "time"

const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

type Group struct {
	GroupID       string    `bson:"_id" json:"groupId"`
	Name          string    `bson:"name" json:"name"`
	Description   string    `bson:"description" json:"description"`
	OwnerID       string    `bson:"ownerId" json:"ownerId"`
	MemberCount   int64     `bson:"memberCount" json:"memberCount"`
	IsPublic      bool      `bson:"isPublic" json:"isPublic"`
	CoverImageURL string    `bson:"coverImageUrl" json:"coverImageUrl"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

type GroupMember struct {
	GroupID  string    `bson:"groupId" json:"groupId"`
	UserID   string    `bson:"userId" json:"userId"`
	Role     string    `bson:"role" json:"role"`
	JoinDate time.Time `bson:"joinDate" json:"joinDate"`
}
