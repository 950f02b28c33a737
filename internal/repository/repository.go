package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/taskboard-api/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateKey is returned when a unique constraint is violated.
	ErrDuplicateKey = errors.New("repository: duplicate key")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email (case-insensitive)
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByIDs returns the users that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []uint64) ([]models.User, error)

	// List returns every user ordered by name
	List(ctx context.Context) ([]models.User, error)

	// Update saves all fields of a user
	Update(ctx context.Context, user *models.User) error

	// Delete hard deletes a user
	Delete(ctx context.Context, id uint64) error
}

// TaskRepository defines the interface for task data access. Every task
// returned carries its team, sub-tasks and activities.
type TaskRepository interface {
	// Create creates a new task along with its team and any sub-tasks
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update saves the scalar fields, assets and team of a task
	Update(ctx context.Context, task *models.Task) error

	// Delete removes a task together with its sub-tasks and activities
	Delete(ctx context.Context, id uint64) error

	// AppendSubTask appends a sub-task and fills its ID
	AppendSubTask(ctx context.Context, taskID uint64, subTask *models.SubTask) error

	// AppendActivity appends an activity and fills its ID
	AppendActivity(ctx context.Context, taskID uint64, activity *models.Activity) error

	// AppendAssets appends asset URLs in order
	AppendAssets(ctx context.Context, taskID uint64, urls []string) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Stage    *models.TaskStage
	MemberID *uint64
	Search   string
	Page     int
	PageSize int
}

// NoticeRepository defines the interface for notification data access
type NoticeRepository interface {
	// Create stores a notice and its recipients
	Create(ctx context.Context, notice *models.Notice) error

	// ListUnread returns notices addressed to userID and not yet read by
	// them, newest first
	ListUnread(ctx context.Context, userID uint64) ([]models.Notice, error)

	// MarkRead records that userID read the notice. ErrNotFound is returned
	// when the notice does not exist or is not addressed to userID.
	MarkRead(ctx context.Context, noticeID, userID uint64) error

	// MarkAllRead records that userID read every notice addressed to them
	MarkAllRead(ctx context.Context, userID uint64) error
}
