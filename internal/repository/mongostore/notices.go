package mongostore

import (
	"context"
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NoticeRepository keeps recipients in "team" and readers in "isRead".
type NoticeRepository struct {
	coll *mongo.Collection
	ids  *sequence
}

func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	id, err := r.ids.next(ctx, noticesCollection)
	if err != nil {
		return err
	}
	notice.ID = id
	notice.CreatedAt = time.Now().UTC()
	if notice.Recipients == nil {
		notice.Recipients = []uint64{}
	}
	if notice.ReadBy == nil {
		notice.ReadBy = []uint64{}
	}

	_, err = r.coll.InsertOne(ctx, notice)
	return translate(err, "insert notice")
}

func (r *NoticeRepository) ListUnread(ctx context.Context, userID uint64) ([]models.Notice, error) {
	filter := bson.M{"team": userID, "isRead": bson.M{"$ne": userID}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, "list notices")
	}
	defer cursor.Close(ctx)

	notices := []models.Notice{}
	if err := cursor.All(ctx, &notices); err != nil {
		return nil, translate(err, "decode notices")
	}
	return notices, nil
}

func (r *NoticeRepository) MarkRead(ctx context.Context, noticeID, userID uint64) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": noticeID, "team": userID},
		bson.M{"$addToSet": bson.M{"isRead": userID}},
	)
	return matched(result, err, "mark notice read")
}

func (r *NoticeRepository) MarkAllRead(ctx context.Context, userID uint64) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"team": userID},
		bson.M{"$addToSet": bson.M{"isRead": userID}},
	)
	return translate(err, "mark all notices read")
}
