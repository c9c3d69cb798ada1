package models

type PostWithUser struct {
	Post Post `json:"post"`
	User User `json:"user"`
}

type CommentWithUser struct {
	Comment Comment `json:"comment"`
	User    User    `json:"user"`
}

// CommentNode is a comment with its replies, in display order.
type CommentNode struct {
	CommentWithUser
	Replies []CommentNode `json:"replies"`
}

type ChatWithUserInfo struct {
	Chat      Chat  `json:"chat"`
	OtherUser *User `json:"otherUser,omitempty"`
}

type NotificationItem struct {
	Notification    Notification `json:"notification"`
	Sender          User         `json:"sender"`
	IsFollowingBack bool         `json:"isFollowingBack"`
}

type UserWithFollowState struct {
	User        User `json:"user"`
	IsFollowing bool `json:"isFollowing"`
}

type UserWithFriendship struct {
	User       User        `json:"user"`
	Friendship *Friendship `json:"friendship,omitempty"`
}
