package view

import (
	"context"

	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/stream"
)

type ChatSnapshot struct {
	Room     models.Chat            `json:"room"`
	Messages []models.Message       `json:"messages"`
	Members  map[string]models.User `json:"members"`
}

// Chat streams a room as seen by viewerID. Messages from senders who are
// no longer resolvable are hidden; system messages are always kept.
func (b *Builder) Chat(ctx context.Context, roomID, viewerID string) <-chan State[ChatSnapshot] {
	room, err := b.chats.WatchChatRoom(ctx, roomID)
	if err != nil {
		return fail[ChatSnapshot](b.log, "chat room", err)
	}
	return stream.SwitchMap(ctx, room, func(ctx context.Context, ch *models.Chat) <-chan State[ChatSnapshot] {
		if ch == nil || !ch.HasParticipant(viewerID) {
			return stream.Of(Failed[ChatSnapshot](MsgRoomNotFound))
		}
		room := *ch
		messages, err := b.chats.WatchMessages(ctx, roomID)
		if err != nil {
			return fail[ChatSnapshot](b.log, "messages", err)
		}
		members, err := b.watchUsers(ctx, room.ParticipantIDs)
		if err != nil {
			return fail[ChatSnapshot](b.log, "members", err)
		}
		return stream.CombineLatest2(ctx, messages, members, func(msgs []models.Message, users []models.User) State[ChatSnapshot] {
			byID := usersByID(users)
			visible := make([]models.Message, 0, len(msgs))
			for _, m := range msgs {
				if _, ok := byID[m.SenderID]; ok || m.IsSystem() {
					visible = append(visible, m)
				}
			}
			return Success(ChatSnapshot{Room: room, Messages: visible, Members: byID})
		})
	})
}

// ChatList streams userID's rooms, each one-to-one room paired with the
// other participant. Group rooms carry no other user.
func (b *Builder) ChatList(ctx context.Context, userID string) <-chan State[[]models.ChatWithUserInfo] {
	rooms, err := b.chats.WatchChatRooms(ctx, userID)
	if err != nil {
		return fail[[]models.ChatWithUserInfo](b.log, "chat rooms", err)
	}
	return stream.SwitchMap(ctx, rooms, func(ctx context.Context, chats []models.Chat) <-chan State[[]models.ChatWithUserInfo] {
		others := make([]string, 0, len(chats))
		for _, ch := range chats {
			if ch.IsGroup() {
				continue
			}
			if id, ok := ch.OtherParticipant(userID); ok {
				others = append(others, id)
			}
		}
		users, err := b.watchUsers(ctx, distinct(others))
		if err != nil {
			return fail[[]models.ChatWithUserInfo](b.log, "chat partners", err)
		}
		return stream.Map(ctx, users, func(us []models.User) State[[]models.ChatWithUserInfo] {
			byID := usersByID(us)
			out := make([]models.ChatWithUserInfo, 0, len(chats))
			for _, ch := range chats {
				item := models.ChatWithUserInfo{Chat: ch}
				if !ch.IsGroup() {
					if id, ok := ch.OtherParticipant(userID); ok {
						if u, ok := byID[id]; ok {
							item.OtherUser = &u
						}
					}
				}
				out = append(out, item)
			}
			return Success(out)
		})
	})
}

type GroupDetails struct {
	Room    models.Chat   `json:"room"`
	Members []models.User `json:"members"`
	IsAdmin bool          `json:"isAdmin"`
}

// GroupDetails streams a group room and its members. It switches to Left
// once the room is gone or viewerID is no longer a participant.
func (b *Builder) GroupDetails(ctx context.Context, roomID, viewerID string) <-chan State[GroupDetails] {
	room, err := b.chats.WatchChatRoom(ctx, roomID)
	if err != nil {
		return fail[GroupDetails](b.log, "group room", err)
	}
	return stream.SwitchMap(ctx, room, func(ctx context.Context, ch *models.Chat) <-chan State[GroupDetails] {
		if ch == nil || !ch.HasParticipant(viewerID) {
			return stream.Of(Left[GroupDetails]())
		}
		room := *ch
		members, err := b.watchUsers(ctx, room.ParticipantIDs)
		if err != nil {
			return fail[GroupDetails](b.log, "group members", err)
		}
		return stream.Map(ctx, members, func(users []models.User) State[GroupDetails] {
			return Success(GroupDetails{Room: room, Members: users, IsAdmin: room.AdminID == viewerID})
		})
	})
}
