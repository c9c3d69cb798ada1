package view

import "github.com/fathima-sithara/vietshare/internal/models"

// BuildCommentTree nests replies under their parents. Roots are the
// comments without a parent; siblings keep their input order. A comment
// whose parent is not in the list is unreachable and left out.
func BuildCommentTree(comments []models.CommentWithUser) []models.CommentNode {
	children := make(map[string][]models.CommentWithUser)
	var roots []models.CommentWithUser
	for _, c := range comments {
		if c.Comment.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.Comment.ParentID] = append(children[*c.Comment.ParentID], c)
	}

	var build func(c models.CommentWithUser) models.CommentNode
	build = func(c models.CommentWithUser) models.CommentNode {
		node := models.CommentNode{CommentWithUser: c, Replies: []models.CommentNode{}}
		for _, r := range children[c.Comment.CommentID] {
			node.Replies = append(node.Replies, build(r))
		}
		return node
	}

	out := make([]models.CommentNode, 0, len(roots))
	for _, r := range roots {
		out = append(out, build(r))
	}
	return out
}

// joinComments pairs comments with their authors, dropping comments whose
// author is unknown.
func joinComments(comments []models.Comment, users map[string]models.User) []models.CommentWithUser {
	out := make([]models.CommentWithUser, 0, len(comments))
	for _, c := range comments {
		u, ok := users[c.SenderID]
		if !ok {
			continue
		}
		out = append(out, models.CommentWithUser{Comment: c, User: u})
	}
	return out
}
