package mongostore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaskRepository stores each task as one document.
type TaskRepository struct {
	coll *mongo.Collection
	ids  *sequence
}

func normalizeTask(task *models.Task) {
	if task.Team == nil {
		task.Team = []uint64{}
	}
	if task.Assets == nil {
		task.Assets = []string{}
	}
	if task.Activities == nil {
		task.Activities = []models.Activity{}
	}
	if task.SubTasks == nil {
		task.SubTasks = []models.SubTask{}
	}
	for i := range task.Activities {
		task.Activities[i].TaskID = task.ID
	}
	for i := range task.SubTasks {
		task.SubTasks[i].TaskID = task.ID
	}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	id, err := r.ids.next(ctx, tasksCollection)
	if err != nil {
		return err
	}
	task.ID = id
	for i := range task.SubTasks {
		if task.SubTasks[i].ID, err = r.ids.next(ctx, "subTasks"); err != nil {
			return err
		}
	}
	for i := range task.Activities {
		if task.Activities[i].ID, err = r.ids.next(ctx, "activities"); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	normalizeTask(task)

	_, err = r.coll.InsertOne(ctx, task)
	return translate(err, "insert task")
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&task); err != nil {
		return nil, translate(err, "find task")
	}
	normalizeTask(&task)
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]models.Task, int64, error) {
	query := bson.M{}
	if filter.Stage != nil {
		query["stage"] = *filter.Stage
	}
	if filter.MemberID != nil {
		query["team"] = *filter.MemberID
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query["title"] = bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, translate(err, "count tasks")
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Page > 0 && filter.PageSize > 0 {
		opts.SetSkip(int64((filter.Page - 1) * filter.PageSize)).SetLimit(int64(filter.PageSize))
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, translate(err, "list tasks")
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, 0, translate(err, "decode tasks")
	}
	for i := range tasks {
		normalizeTask(&tasks[i])
	}
	return tasks, total, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	normalizeTask(task)
	task.UpdatedAt = time.Now().UTC()

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": task.ID}, bson.M{"$set": bson.M{
		"title":     task.Title,
		"date":      task.Date,
		"priority":  task.Priority,
		"stage":     task.Stage,
		"team":      task.Team,
		"assets":    task.Assets,
		"updatedAt": task.UpdatedAt,
	}})
	return matched(result, err, "update task")
}

func (r *TaskRepository) Delete(ctx context.Context, id uint64) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "delete task")
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) AppendSubTask(ctx context.Context, taskID uint64, subTask *models.SubTask) error {
	id, err := r.ids.next(ctx, "subTasks")
	if err != nil {
		return err
	}
	subTask.ID = id
	subTask.TaskID = taskID
	return r.push(ctx, taskID, bson.M{"subTasks": subTask}, "append sub-task")
}

func (r *TaskRepository) AppendActivity(ctx context.Context, taskID uint64, activity *models.Activity) error {
	id, err := r.ids.next(ctx, "activities")
	if err != nil {
		return err
	}
	activity.ID = id
	activity.TaskID = taskID
	return r.push(ctx, taskID, bson.M{"activities": activity}, "append activity")
}

func (r *TaskRepository) AppendAssets(ctx context.Context, taskID uint64, urls []string) error {
	return r.push(ctx, taskID, bson.M{"assets": bson.M{"$each": urls}}, "append assets")
}

func (r *TaskRepository) push(ctx context.Context, taskID uint64, fields bson.M, op string) error {
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{
		"$push": fields,
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	return matched(result, err, op)
}

func matched(result *mongo.UpdateResult, err error, op string) error {
	if err != nil {
		return translate(err, op)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
