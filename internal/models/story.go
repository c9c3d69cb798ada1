package models

import "time"

// StoryLifetime is how long a story stays visible after it is posted.
const StoryLifetime = 24 * time.Hour

type Story struct {
	StoryID   string    `bson:"_id" json:"storyId"`
	UserID    string    `bson:"userId" json:"userId"`
	MediaURL  string    `bson:"mediaUrl" json:"mediaUrl"`
	Caption   string    `bson:"caption" json:"caption"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	Views     []string  `bson:"views" json:"views"`
}

func (s *Story) Normalize() {
	if s.Views == nil {
		s.Views = []string{}
	}
}
