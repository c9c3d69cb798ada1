package models

import "time"

type User struct {
	UserID          string            `bson:"_id" json:"userId"`
	Username        string            `bson:"username" json:"username"`
	Email           string            `bson:"email" json:"email"`
	DisplayName     string            `bson:"displayName" json:"displayName"`
	Bio             string            `bson:"bio" json:"bio"`
	ProfileImageURL string            `bson:"profileImageUrl" json:"profileImageUrl"`
	DateOfBirth     *time.Time        `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Hometown        string            `bson:"hometown" json:"hometown"`
	Hobbies         []string          `bson:"hobbies" json:"hobbies"`
	FollowersCount  int64             `bson:"followersCount" json:"followersCount"`
	FollowingCount  int64             `bson:"followingCount" json:"followingCount"`
	Followers       []string          `bson:"followers" json:"followers"`
	Following       []string          `bson:"following" json:"following"`
	LastActive      time.Time         `bson:"lastActive" json:"lastActive"`
	Settings        map[string]string `bson:"settings" json:"settings"`
	CreatedAt       time.Time         `bson:"createdAt" json:"createdAt"`
}

// Normalize replaces nil collections with empty ones so documents always
// serialize arrays and maps instead of null.
func (u *User) Normalize() {
	if u.Hobbies == nil {
		u.Hobbies = []string{}
	}
	if u.Followers == nil {
		u.Followers = []string{}
	}
	if u.Following == nil {
		u.Following = []string{}
	}
	if u.Settings == nil {
		u.Settings = map[string]string{}
	}
}

func (u *User) IsFollowing(userID string) bool {
	return contains(u.Following, userID)
}

func (u *User) IsFollowedBy(userID string) bool {
	return contains(u.Followers, userID)
}

// ProfileUpdate carries the editable profile fields. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Username    *string           `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	DisplayName *string           `json:"displayName,omitempty" validate:"omitempty,min=1,max=60"`
	Bio         *string           `json:"bio,omitempty" validate:"omitempty,max=300"`
	DateOfBirth *time.Time        `json:"dateOfBirth,omitempty"`
	Hometown    *string           `json:"hometown,omitempty" validate:"omitempty,max=100"`
	Hobbies     []string          `json:"hobbies,omitempty" validate:"omitempty,max=20,dive,max=40"`
	Settings    map[string]string `json:"settings,omitempty"`
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
