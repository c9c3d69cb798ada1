package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/vietshare/internal/models"
)

func (s *MongoStore) roomsOf(ctx context.Context, userID string) ([]models.Chat, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "lastMessageTimestamp", Value: -1}, {Key: "_id", Value: 1}})
	rooms, err := findAll[models.Chat](ctx, s.chats, bson.M{"participantIds": userID}, opts)
	if err != nil {
		return nil, err
	}
	for i := range rooms {
		rooms[i].Normalize()
	}
	return rooms, nil
}

func (s *MongoStore) WatchChatRooms(ctx context.Context, userID string) (<-chan []models.Chat, error) {
	return watchMongo(ctx, s, s.chats, mongo.Pipeline{}, func(ctx context.Context) ([]models.Chat, error) {
		return s.roomsOf(ctx, userID)
	}), nil
}

func (s *MongoStore) GetChatRoom(ctx context.Context, roomID string) (*models.Chat, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	var c models.Chat
	if err := s.chats.FindOne(ctx, bson.M{"_id": roomID}).Decode(&c); err != nil {
		return nil, mapNotFound(err)
	}
	c.Normalize()
	return &c, nil
}

func (s *MongoStore) WatchChatRoom(ctx context.Context, roomID string) (<-chan *models.Chat, error) {
	return watchMongo(ctx, s, s.chats, matchIDs(roomID), func(ctx context.Context) (*models.Chat, error) {
		c, err := s.GetChatRoom(ctx, roomID)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return c, err
	}), nil
}

func (s *MongoStore) WatchMessages(ctx context.Context, roomID string) (<-chan []models.Message, error) {
	return watchMongo(ctx, s, s.messages, mongo.Pipeline{}, func(ctx context.Context) ([]models.Message, error) {
		ctx, cancel := s.ctx(ctx)
		defer cancel()
		opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
		return findAll[models.Message](ctx, s.messages, bson.M{"roomId": roomID}, opts)
	}), nil
}

func (s *MongoStore) WatchUnreadChatsCount(ctx context.Context, userID string) (<-chan int64, error) {
	return watchMongo(ctx, s, s.chats, mongo.Pipeline{}, func(ctx context.Context) (int64, error) {
		rooms, err := s.roomsOf(ctx, userID)
		if err != nil {
			return 0, err
		}
		var total int64
		for _, r := range rooms {
			total += r.UnreadCount[userID]
		}
		return total, nil
	}), nil
}

// CreateChatRoom upserts the one-to-one room of the pair and returns its id.
func (s *MongoStore) CreateChatRoom(ctx context.Context, userID1, userID2 string) (string, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	roomID := models.ChatRoomID(userID1, userID2)
	room := models.Chat{
		RoomID:         roomID,
		Type:           models.ChatOneToOne,
		ParticipantIDs: []string{userID1, userID2},
		UnreadCount:    map[string]int64{userID1: 0, userID2: 0},
	}
	if userID1 > userID2 {
		room.ParticipantIDs = []string{userID2, userID1}
	}
	_, err := s.chats.UpdateByID(ctx, roomID, bson.M{"$setOnInsert": room}, options.Update().SetUpsert(true))
	if err != nil {
		return "", err
	}
	return roomID, nil
}

func (s *MongoStore) CreateGroupChat(ctx context.Context, groupName string, memberIDs []string, adminID string) (string, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	members := distinct(append(cloneStrings(memberIDs), adminID))
	unread := make(map[string]int64, len(members))
	for _, id := range members {
		unread[id] = 0
	}
	room := models.Chat{
		RoomID:               newID(),
		Type:                 models.ChatGroup,
		GroupName:            groupName,
		AdminID:              adminID,
		ParticipantIDs:       members,
		UnreadCount:          unread,
		LastMessage:          models.LastMessageCreated,
		LastMessageTimestamp: s.now(),
	}
	if _, err := s.chats.InsertOne(ctx, room); err != nil {
		return "", err
	}
	return room.RoomID, nil
}

func (s *MongoStore) AddMembersToGroup(ctx context.Context, roomID string, memberIDs []string) error {
	return s.inTx(ctx, func(sc mongo.SessionContext) error {
		var room models.Chat
		if err := s.chats.FindOne(sc, bson.M{"_id": roomID}).Decode(&room); err != nil {
			return mapNotFound(err)
		}
		set := bson.M{}
		added := []string{}
		for _, id := range distinct(memberIDs) {
			if room.HasParticipant(id) {
				continue
			}
			added = append(added, id)
			set["unreadCount."+id] = 0
		}
		if len(added) == 0 {
			return nil
		}
		_, err := s.chats.UpdateByID(sc, roomID, bson.M{
			"$addToSet": bson.M{"participantIds": bson.M{"$each": added}},
			"$set":      set,
		})
		return err
	})
}

func (s *MongoStore) RemoveMemberFromGroup(ctx context.Context, roomID, memberID string) error {
	return s.updateChat(ctx, roomID, bson.M{
		"$pull":  bson.M{"participantIds": memberID},
		"$unset": bson.M{"unreadCount." + memberID: ""},
	})
}

// SendMessage stores msg and updates the room preview and unread counters in
// one transaction.
func (s *MongoStore) SendMessage(ctx context.Context, msg *models.Message) error {
	if msg.MessageID == "" {
		msg.MessageID = newID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	return s.inTx(ctx, func(sc mongo.SessionContext) error {
		var room models.Chat
		if err := s.chats.FindOne(sc, bson.M{"_id": msg.RoomID}).Decode(&room); err != nil {
			return mapNotFound(err)
		}
		if _, err := s.messages.InsertOne(sc, msg); err != nil {
			return err
		}
		update := bson.M{"$set": bson.M{
			"lastMessage":          msg.Preview(),
			"lastMessageTimestamp": msg.Timestamp,
		}}
		if recipients := room.UnreadRecipients(msg.SenderID); len(recipients) > 0 {
			inc := bson.M{}
			for _, id := range recipients {
				inc["unreadCount."+id] = 1
			}
			update["$inc"] = inc
		}
		_, err := s.chats.UpdateByID(sc, msg.RoomID, update)
		return err
	})
}

func (s *MongoStore) SendSystemMessage(ctx context.Context, roomID, content string) error {
	text := content
	msg := &models.Message{
		MessageID: newID(),
		RoomID:    roomID,
		Content:   &text,
		Type:      models.MessageTypeSystem,
		Timestamp: s.now(),
	}
	return s.inTx(ctx, func(sc mongo.SessionContext) error {
		res, err := s.chats.UpdateByID(sc, roomID, bson.M{"$set": bson.M{
			"lastMessage":          content,
			"lastMessageTimestamp": msg.Timestamp,
		}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		_, err = s.messages.InsertOne(sc, msg)
		return err
	})
}

func (s *MongoStore) MarkMessagesAsRead(ctx context.Context, roomID, userID string) error {
	return s.updateChat(ctx, roomID, bson.M{"$set": bson.M{"unreadCount." + userID: 0}})
}

func (s *MongoStore) UpdateGroupImageURL(ctx context.Context, roomID, url string) error {
	return s.updateChat(ctx, roomID, bson.M{"$set": bson.M{"groupImageUrl": url}})
}

func (s *MongoStore) updateChat(ctx context.Context, roomID string, update bson.M) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	res, err := s.chats.UpdateByID(ctx, roomID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteMessage(ctx context.Context, roomID, messageID string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	res, err := s.messages.DeleteOne(ctx, bson.M{"_id": messageID, "roomId": roomID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteChat(ctx context.Context, roomID string) error {
	return s.inTx(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.messages.DeleteMany(sc, bson.M{"roomId": roomID}); err != nil {
			return err
		}
		_, err := s.chats.DeleteOne(sc, bson.M{"_id": roomID})
		return err
	})
}
