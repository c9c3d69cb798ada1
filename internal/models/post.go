package models

import "time"

// MediaInfo is an uploaded object. PublicID is the opaque handle needed to
// delete it from the media store.
type MediaInfo struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId" json:"publicId"`
}

type Post struct {
	PostID       string      `bson:"_id" json:"postId"`
	UserID       string      `bson:"userId" json:"userId"`
	Content      string      `bson:"content" json:"content"`
	Media        []MediaInfo `bson:"media" json:"media"`
	MediaURLs    []string    `bson:"mediaUrls,omitempty" json:"mediaUrls,omitempty"`
	Timestamp    time.Time   `bson:"timestamp" json:"timestamp"`
	Likes        []string    `bson:"likes" json:"likes"`
	CommentCount int64       `bson:"commentCount" json:"commentCount"`
}

func (p *Post) Normalize() {
	if p.Media == nil {
		p.Media = []MediaInfo{}
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
}

func (p *Post) LikedBy(userID string) bool {
	return contains(p.Likes, userID)
}

// ImageURLs returns the URLs of every attached image, including the ones
// stored by older clients in MediaURLs.
func (p *Post) ImageURLs() []string {
	out := make([]string, 0, len(p.Media)+len(p.MediaURLs))
	for _, m := range p.Media {
		out = append(out, m.URL)
	}
	return append(out, p.MediaURLs...)
}

type Comment struct {
	CommentID string              `bson:"_id" json:"commentId"`
	PostID    string              `bson:"postId" json:"postId"`
	SenderID  string              `bson:"senderId" json:"senderId"`
	ParentID  *string             `bson:"parentId" json:"parentId"`
	Content   string              `bson:"content" json:"content"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
	Reactions map[string][]string `bson:"reactions" json:"reactions"`
}

func (c *Comment) Normalize() {
	if c.Reactions == nil {
		c.Reactions = map[string][]string{}
	}
}

func (c *Comment) IsReply() bool { return c.ParentID != nil }
