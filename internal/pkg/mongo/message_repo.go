package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepo interface {
	SaveMessage(ctx context.Context, msg *Message) error
	GetTopLevel(ctx context.Context, channelID uint64, limit int) ([]*Message, error)
	GetThread(ctx context.Context, channelID uint64, parentID string) ([]*Message, error)
	CountByChannels(ctx context.Context, channelIDs []uint64) (map[uint64]int64, error)
}

type messageRepoImpl struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepoImpl{
		col: db.Collection("message"),
	}
}

// SaveMessage 将消息存入 MongoDB
func (s *messageRepoImpl) SaveMessage(ctx context.Context, msg *Message) error {
	_, err := s.col.InsertOne(ctx, msg)
	return err
}

// GetTopLevel 主消息流查询，线程回复不出现在这里
// 按发送时间取最近 limit 条，返回时已翻转为正序
func (s *messageRepoImpl) GetTopLevel(ctx context.Context, channelID uint64, limit int) ([]*Message, error) {
	filter := bson.M{
		"channel_id": channelID,
		"$or": bson.A{
			bson.M{"parent_id": bson.M{"$exists": false}},
			bson.M{"parent_id": ""},
		},
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var messages []*Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// GetThread 拉取某条消息下的全部线程回复
func (s *messageRepoImpl) GetThread(ctx context.Context, channelID uint64, parentID string) ([]*Message, error) {
	filter := bson.M{
		"channel_id": channelID,
		"parent_id":  parentID,
	}

	cursor, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var messages []*Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// CountByChannels 按频道聚合消息总数，供看板统计使用
func (s *messageRepoImpl) CountByChannels(ctx context.Context, channelIDs []uint64) (map[uint64]int64, error) {
	res := make(map[uint64]int64, len(channelIDs))
	if len(channelIDs) == 0 {
		return res, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"channel_id": bson.M{"$in": channelIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$channel_id", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var rows []struct {
		ChannelID uint64 `bson:"_id"`
		Count     int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	for _, r := range rows {
		res[r.ChannelID] = r.Count
	}
	return res, nil
}
