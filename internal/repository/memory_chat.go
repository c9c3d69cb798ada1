package repository

import (
	"context"
	"sort"

	"github.com/fathima-sithara/vietshare/internal/models"
)

func (m *MemoryStore) WatchChatRooms(ctx context.Context, userID string) (<-chan []models.Chat, error) {
	return watchMemory(ctx, m, func() []models.Chat { return m.roomsOf(userID) }), nil
}

// roomsOf returns the rooms userID takes part in, most recent activity first.
func (m *MemoryStore) roomsOf(userID string) []models.Chat {
	out := []models.Chat{}
	for _, ch := range m.chats {
		if ch.HasParticipant(userID) {
			out = append(out, cloneChat(ch))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastMessageTimestamp.Equal(out[j].LastMessageTimestamp) {
			return out[i].RoomID < out[j].RoomID
		}
		return out[i].LastMessageTimestamp.After(out[j].LastMessageTimestamp)
	})
	return out
}

func (m *MemoryStore) GetChatRoom(ctx context.Context, roomID string) (*models.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.chats[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneChat(ch)
	return &c, nil
}

func (m *MemoryStore) WatchChatRoom(ctx context.Context, roomID string) (<-chan *models.Chat, error) {
	return watchMemory(ctx, m, func() *models.Chat {
		ch, ok := m.chats[roomID]
		if !ok {
			return nil
		}
		c := cloneChat(ch)
		return &c
	}), nil
}

func (m *MemoryStore) WatchMessages(ctx context.Context, roomID string) (<-chan []models.Message, error) {
	return watchMemory(ctx, m, func() []models.Message {
		out := []models.Message{}
		for _, msg := range m.messages {
			if msg.RoomID == roomID {
				out = append(out, cloneMessage(msg))
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Timestamp.Equal(out[j].Timestamp) {
				return out[i].MessageID < out[j].MessageID
			}
			return out[i].Timestamp.Before(out[j].Timestamp)
		})
		return out
	}), nil
}

func (m *MemoryStore) WatchUnreadChatsCount(ctx context.Context, userID string) (<-chan int64, error) {
	return watchMemory(ctx, m, func() int64 {
		var total int64
		for _, ch := range m.chats {
			if ch.HasParticipant(userID) {
				total += ch.UnreadCount[userID]
			}
		}
		return total
	}), nil
}

func (m *MemoryStore) CreateChatRoom(ctx context.Context, userID1, userID2 string) (string, error) {
	roomID := models.ChatRoomID(userID1, userID2)
	err := m.write(func() error {
		if _, ok := m.chats[roomID]; ok {
			return nil
		}
		participants := []string{userID1, userID2}
		sort.Strings(participants)
		m.chats[roomID] = &models.Chat{
			RoomID:         roomID,
			Type:           models.ChatOneToOne,
			ParticipantIDs: participants,
			UnreadCount:    map[string]int64{userID1: 0, userID2: 0},
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return roomID, nil
}

func (m *MemoryStore) CreateGroupChat(ctx context.Context, groupName string, memberIDs []string, adminID string) (string, error) {
	roomID := newID()
	members := distinct(append(cloneStrings(memberIDs), adminID))
	unread := make(map[string]int64, len(members))
	for _, id := range members {
		unread[id] = 0
	}
	err := m.write(func() error {
		m.chats[roomID] = &models.Chat{
			RoomID:               roomID,
			Type:                 models.ChatGroup,
			GroupName:            groupName,
			AdminID:              adminID,
			ParticipantIDs:       members,
			UnreadCount:          unread,
			LastMessage:          models.LastMessageCreated,
			LastMessageTimestamp: m.now(),
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return roomID, nil
}

func (m *MemoryStore) AddMembersToGroup(ctx context.Context, roomID string, memberIDs []string) error {
	return m.write(func() error {
		ch, ok := m.chats[roomID]
		if !ok {
			return ErrNotFound
		}
		for _, id := range memberIDs {
			if ch.HasParticipant(id) {
				continue
			}
			ch.ParticipantIDs = append(ch.ParticipantIDs, id)
			ch.UnreadCount[id] = 0
		}
		return nil
	})
}

func (m *MemoryStore) RemoveMemberFromGroup(ctx context.Context, roomID, memberID string) error {
	return m.write(func() error {
		ch, ok := m.chats[roomID]
		if !ok {
			return ErrNotFound
		}
		ch.ParticipantIDs = removeValue(ch.ParticipantIDs, memberID)
		delete(ch.UnreadCount, memberID)
		return nil
	})
}

func (m *MemoryStore) SendMessage(ctx context.Context, msg *models.Message) error {
	return m.write(func() error {
		ch, ok := m.chats[msg.RoomID]
		if !ok {
			return ErrNotFound
		}
		if msg.MessageID == "" {
			msg.MessageID = newID()
		}
		if msg.Timestamp.IsZero() {
			msg.Timestamp = m.now()
		}
		stored := cloneMessage(msg)
		m.messages[msg.MessageID] = &stored

		ch.LastMessage = msg.Preview()
		ch.LastMessageTimestamp = msg.Timestamp
		for _, id := range ch.UnreadRecipients(msg.SenderID) {
			ch.UnreadCount[id]++
		}
		return nil
	})
}

func (m *MemoryStore) SendSystemMessage(ctx context.Context, roomID, content string) error {
	return m.write(func() error {
		ch, ok := m.chats[roomID]
		if !ok {
			return ErrNotFound
		}
		text := content
		msg := &models.Message{
			MessageID: newID(),
			RoomID:    roomID,
			Content:   &text,
			Type:      models.MessageTypeSystem,
			Timestamp: m.now(),
		}
		m.messages[msg.MessageID] = msg
		ch.LastMessage = content
		ch.LastMessageTimestamp = msg.Timestamp
		return nil
	})
}

func (m *MemoryStore) MarkMessagesAsRead(ctx context.Context, roomID, userID string) error {
	return m.write(func() error {
		ch, ok := m.chats[roomID]
		if !ok {
			return ErrNotFound
		}
		ch.UnreadCount[userID] = 0
		return nil
	})
}

func (m *MemoryStore) UpdateGroupImageURL(ctx context.Context, roomID, url string) error {
	return m.write(func() error {
		ch, ok := m.chats[roomID]
		if !ok {
			return ErrNotFound
		}
		ch.GroupImageURL = url
		return nil
	})
}

func (m *MemoryStore) DeleteMessage(ctx context.Context, roomID, messageID string) error {
	return m.write(func() error {
		msg, ok := m.messages[messageID]
		if !ok || msg.RoomID != roomID {
			return ErrNotFound
		}
		delete(m.messages, messageID)
		return nil
	})
}

func (m *MemoryStore) DeleteChat(ctx context.Context, roomID string) error {
	return m.write(func() error {
		for id, msg := range m.messages {
			if msg.RoomID == roomID {
				delete(m.messages, id)
			}
		}
		delete(m.chats, roomID)
		return nil
	})
}
