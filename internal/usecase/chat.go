package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fathima-sithara/vietshare/internal/apperror"
	"github.com/fathima-sithara/vietshare/internal/events"
	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/repository"
)

type ChatService struct {
	chats    repository.ChatRepository
	users    repository.UserRepository
	uploader MediaUploader
	events   events.Publisher
	log      *zap.SugaredLogger
}

func (s *ChatService) WatchChatRooms(ctx context.Context, userID string) (<-chan []models.Chat, error) {
	return s.chats.WatchChatRooms(ctx, userID)
}

func (s *ChatService) WatchUnreadChatsCount(ctx context.Context, userID string) (<-chan int64, error) {
	return s.chats.WatchUnreadChatsCount(ctx, userID)
}

// room loads roomID and checks that userID takes part in it.
func (s *ChatService) room(ctx context.Context, userID, roomID string) (*models.Chat, error) {
	ch, err := s.chats.GetChatRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !ch.HasParticipant(userID) {
		return nil, forbidden("not a member of room %s", roomID)
	}
	return ch, nil
}

// groupAsAdmin loads a group room and checks that userID is its admin.
func (s *ChatService) groupAsAdmin(ctx context.Context, userID, roomID string) (*models.Chat, error) {
	ch, err := s.chats.GetChatRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !ch.IsGroup() {
		return nil, invalid("room %s is not a group", roomID)
	}
	if ch.AdminID != userID {
		return nil, forbidden("only the group admin can do this")
	}
	return ch, nil
}

func (s *ChatService) GetChatRoom(ctx context.Context, userID, roomID string) (*models.Chat, error) {
	return s.room(ctx, userID, roomID)
}

// FindOrCreateChatRoom returns the one-to-one room between userID and
// otherID, creating it on first use.
func (s *ChatService) FindOrCreateChatRoom(ctx context.Context, userID, otherID string) (string, error) {
	if userID == otherID {
		return "", invalid("cannot chat with yourself")
	}
	if _, err := s.users.GetUser(ctx, otherID); err != nil {
		return "", err
	}
	roomID := models.ChatRoomID(userID, otherID)
	if _, err := s.chats.GetChatRoom(ctx, roomID); err == nil {
		return roomID, nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return "", err
	}
	return s.chats.CreateChatRoom(ctx, userID, otherID)
}

func (s *ChatService) CreateGroupChat(ctx context.Context, userID, name string, memberIDs []string) (string, error) {
	if blank(name) {
		return "", invalid("group name is required")
	}
	others := 0
	for _, id := range memberIDs {
		if id != userID {
			others++
		}
	}
	if others == 0 {
		return "", invalid("a group needs at least one other member")
	}
	return s.chats.CreateGroupChat(ctx, strings.TrimSpace(name), memberIDs, userID)
}

// SendMessage stores a text and/or image message from userID. The image is
// uploaded before the message is written.
func (s *ChatService) SendMessage(ctx context.Context, userID, roomID, content string, img *Image) (*models.Message, error) {
	hasImage := img != nil && len(img.Data) > 0
	if blank(content) && !hasImage {
		return nil, invalid("message is empty")
	}
	ch, err := s.room(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{RoomID: roomID, SenderID: userID}
	if !blank(content) {
		text := strings.TrimSpace(content)
		msg.Content = &text
	}
	if hasImage {
		info, err := s.uploader.UploadImage(ctx, "chat_images/"+roomID, img.Name, img.ContentType, img.Data)
		if err != nil {
			return nil, fmt.Errorf("upload chat image: %w", err)
		}
		msg.Media = &info
	}
	if err := s.chats.SendMessage(ctx, msg); err != nil {
		return nil, err
	}
	s.events.Publish(ctx, events.New(events.MessageSent, userID, msg, ch.UnreadRecipients(userID)...))
	return msg, nil
}

func (s *ChatService) MarkAsRead(ctx context.Context, userID, roomID string) error {
	if _, err := s.room(ctx, userID, roomID); err != nil {
		return err
	}
	return s.chats.MarkMessagesAsRead(ctx, roomID, userID)
}

func (s *ChatService) AddMembers(ctx context.Context, userID, roomID string, memberIDs []string) error {
	if len(memberIDs) == 0 {
		return invalid("no members given")
	}
	if _, err := s.groupAsAdmin(ctx, userID, roomID); err != nil {
		return err
	}
	return s.chats.AddMembersToGroup(ctx, roomID, memberIDs)
}

// RemoveMember lets the admin drop a member and announces it in the room.
func (s *ChatService) RemoveMember(ctx context.Context, userID, roomID, memberID string) error {
	ch, err := s.groupAsAdmin(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if memberID == ch.AdminID {
		return invalid("the admin cannot be removed")
	}
	if !ch.HasParticipant(memberID) {
		return fmt.Errorf("member %s: %w", memberID, apperror.ErrNotFound)
	}
	if err := s.chats.RemoveMemberFromGroup(ctx, roomID, memberID); err != nil {
		return err
	}
	return s.announce(ctx, roomID, s.displayName(ctx, memberID)+" was removed from the group.")
}

// LeaveGroup removes userID from a group room. The admin has to stay.
func (s *ChatService) LeaveGroup(ctx context.Context, userID, roomID string) error {
	ch, err := s.room(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if !ch.IsGroup() {
		return invalid("room %s is not a group", roomID)
	}
	if ch.AdminID == userID {
		return invalid("the admin cannot leave the group")
	}
	if err := s.chats.RemoveMemberFromGroup(ctx, roomID, userID); err != nil {
		return err
	}
	return s.announce(ctx, roomID, s.displayName(ctx, userID)+" left the group.")
}

func (s *ChatService) ChangeGroupImage(ctx context.Context, userID, roomID string, img Image) (string, error) {
	if _, err := s.groupAsAdmin(ctx, userID, roomID); err != nil {
		return "", err
	}
	info, err := s.uploader.UploadImage(ctx, "group_avatars", img.Name, img.ContentType, img.Data)
	if err != nil {
		return "", fmt.Errorf("upload group image: %w", err)
	}
	if err := s.chats.UpdateGroupImageURL(ctx, roomID, info.URL); err != nil {
		return "", err
	}
	return info.URL, nil
}

// DeleteMessage is the group admin's moderation tool.
func (s *ChatService) DeleteMessage(ctx context.Context, userID, roomID, messageID string) error {
	if _, err := s.groupAsAdmin(ctx, userID, roomID); err != nil {
		return err
	}
	return s.chats.DeleteMessage(ctx, roomID, messageID)
}

func (s *ChatService) DeleteChat(ctx context.Context, userID, roomID string) error {
	ch, err := s.room(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if ch.IsGroup() && ch.AdminID != userID {
		return forbidden("only the group admin can delete the group")
	}
	return s.chats.DeleteChat(ctx, roomID)
}

func (s *ChatService) announce(ctx context.Context, roomID, text string) error {
	if err := s.chats.SendSystemMessage(ctx, roomID, text); err != nil {
		return fmt.Errorf("system message: %w", err)
	}
	return nil
}

func (s *ChatService) displayName(ctx context.Context, userID string) string {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil || blank(u.DisplayName) {
		return "A member"
	}
	return u.DisplayName
}
