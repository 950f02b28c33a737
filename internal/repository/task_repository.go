package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/taskboard-api/internal/database"
	"github.com/yukikurage/taskboard-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// withChildren preloads team slots, sub-tasks and activities in insertion order
func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("task_members.position ASC") }).
		Preload("SubTasks", func(db *gorm.DB) *gorm.DB { return db.Order("sub_tasks.id ASC") }).
		Preload("Activities", func(db *gorm.DB) *gorm.DB { return db.Order("activities.id ASC") })
}

func membersFor(taskID uint64, team []uint64) []models.TaskMember {
	members := make([]models.TaskMember, len(team))
	for i, userID := range team {
		members[i] = models.TaskMember{TaskID: taskID, UserID: userID, Position: i}
	}
	return members
}

// fillTeam projects the loaded team slots onto Task.Team
func fillTeam(task *models.Task) {
	task.Team = make([]uint64, len(task.Members))
	for i, m := range task.Members {
		task.Team[i] = m.UserID
	}
	if task.Assets == nil {
		task.Assets = []string{}
	}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.Assets == nil {
		task.Assets = []string{}
	}
	task.Members = membersFor(0, task.Team)
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return translate(err, "create task")
	}
	fillTeam(task)
	return nil
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := withChildren(r.db.WithContext(ctx)).First(&task, id).Error; err != nil {
		return nil, translate(err, "find task")
	}
	fillTeam(&task)
	return &task, nil
}

// List retrieves tasks with filtering and pagination, newest first
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	filtered := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.Task{})
		if filter.Stage != nil {
			query = query.Where("tasks.stage = ?", *filter.Stage)
		}
		if filter.MemberID != nil {
			memberSubQuery := r.db.Model(&models.TaskMember{}).
				Select("1").
				Where("task_members.task_id = tasks.id").
				Where("task_members.user_id = ?", *filter.MemberID)
			query = query.Where("EXISTS (?)", memberSubQuery)
		}
		if search := strings.TrimSpace(filter.Search); search != "" {
			query = query.Where("LOWER(tasks.title) LIKE ?", "%"+strings.ToLower(search)+"%")
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count tasks")
	}

	var tasks []models.Task
	err := withChildren(filtered()).
		Order("tasks.created_at DESC, tasks.id DESC").
		Scopes(database.Paginate(filter.Page, filter.PageSize)).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, translate(err, "list tasks")
	}

	for i := range tasks {
		fillTeam(&tasks[i])
	}
	return tasks, total, nil
}

// Update saves scalar fields, assets and the team. It never inserts.
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	if task.Assets == nil {
		task.Assets = []string{}
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTask(tx, task.ID); err != nil {
			return err
		}

		if err := tx.Model(task).
			Select("Title", "Date", "Priority", "Stage", "Assets").
			Updates(task).Error; err != nil {
			return err
		}

		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskMember{}).Error; err != nil {
			return err
		}
		if len(task.Team) == 0 {
			return nil
		}
		members := membersFor(task.ID, task.Team)
		return tx.Create(&members).Error
	})
	return translate(err, "update task")
}

// Delete removes a task and its children
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{&models.SubTask{}, &models.Activity{}, &models.TaskMember{}} {
			if err := tx.Where("task_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&models.Task{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	return translate(err, "delete task")
}

// AppendSubTask appends a sub-task
func (r *GormTaskRepository) AppendSubTask(ctx context.Context, taskID uint64, subTask *models.SubTask) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTask(tx, taskID); err != nil {
			return err
		}
		subTask.TaskID = taskID
		return tx.Create(subTask).Error
	})
	return translate(err, "append sub-task")
}

// AppendActivity appends an activity
func (r *GormTaskRepository) AppendActivity(ctx context.Context, taskID uint64, activity *models.Activity) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTask(tx, taskID); err != nil {
			return err
		}
		activity.TaskID = taskID
		return tx.Create(activity).Error
	})
	return translate(err, "append activity")
}

// AppendAssets appends asset URLs to the task
func (r *GormTaskRepository) AppendAssets(ctx context.Context, taskID uint64, urls []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.Select("id", "assets").First(&task, taskID).Error; err != nil {
			return err
		}
		task.Assets = append(task.Assets, urls...)
		return tx.Model(&task).Select("Assets").Updates(&task).Error
	})
	return translate(err, "append assets")
}

func ensureTask(tx *gorm.DB, id uint64) error {
	var count int64
	if err := tx.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
