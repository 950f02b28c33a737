package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/logging"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/storage"
)

var (
	ErrTaskNotFound           = newError(ErrNotFound, "Task not found")
	ErrTitleRequired          = newError(ErrValidation, "Title is required")
	ErrTitleEmpty             = newError(ErrValidation, "Title cannot be empty")
	ErrTitleTooLong           = newError(ErrValidation, fmt.Sprintf("Title must be at most %d characters", constants.MaxTitleLength))
	ErrActivityRequired       = newError(ErrValidation, "Activity is required")
	ErrNoFiles                = newError(ErrValidation, "At least one file is required")
	ErrTooManyFiles           = newError(ErrValidation, fmt.Sprintf("At most %d files can be uploaded at once", constants.MaxUploadFiles))
	ErrTextRequired           = newError(ErrValidation, "Text is required")
	ErrUploadsNotConfigured   = newError(ErrUnavailable, "File uploads are not configured")
	ErrAIServiceNotConfigured = newError(ErrUnavailable, "AI service is not configured")
	ErrAINoTasksGenerated     = newError(ErrUpstream, "AI did not generate any tasks")
	ErrAINoValidTasks         = newError(ErrUpstream, "No valid tasks could be created from AI output")
)

// AssetUploader stores files and returns their URLs in order.
type AssetUploader interface {
	UploadAll(ctx context.Context, files []storage.File) ([]string, error)
}

// TaskService handles task business logic
type TaskService struct {
	tasks    repository.TaskRepository
	users    repository.UserRepository
	notifier *NotificationService
	uploader AssetUploader
	drafter  TaskDrafter
	now      func() time.Time
}

// NewTaskService creates a new TaskService. uploader and drafter may be nil,
// which disables attachments and AI drafting.
func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository, notifier *NotificationService, uploader AssetUploader, drafter TaskDrafter) *TaskService {
	return &TaskService{
		tasks:    tasks,
		users:    users,
		notifier: notifier,
		uploader: uploader,
		drafter:  drafter,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateTaskInput represents input for creating a task. Zero values take
// the defaults: today, TODO, NORMAL.
type CreateTaskInput struct {
	Title    string
	Date     *time.Time
	Stage    models.TaskStage
	Priority models.TaskPriority
	Team     []uint64
	Assets   []string
}

// CreateTask stores a task and alerts its team.
func (s *TaskService) CreateTask(ctx context.Context, actorID uint64, input CreateTaskInput) (*models.Task, error) {
	title, err := checkTitle(input.Title, ErrTitleRequired)
	if err != nil {
		return nil, err
	}

	stage, err := stageOrDefault(input.Stage)
	if err != nil {
		return nil, err
	}
	priority, err := priorityOrDefault(input.Priority)
	if err != nil {
		return nil, err
	}

	team, err := s.checkTeam(ctx, input.Team)
	if err != nil {
		return nil, err
	}

	date := s.today()
	if input.Date != nil {
		date = input.Date.UTC()
	}

	task := &models.Task{
		Title:      title,
		Date:       date,
		Priority:   priority,
		Stage:      stage,
		Team:       team,
		Assets:     nonNilStrings(input.Assets),
		Activities: []models.Activity{},
		SubTasks:   []models.SubTask{},
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.alertTeam(ctx, task)

	logging.Logger.WithField("task_id", task.ID).WithField("actor_id", actorID).Info("task created")
	return task, nil
}

// alertTeam sends the assignment notice. The task is already stored, so a
// failure here is logged and not returned.
func (s *TaskService) alertTeam(ctx context.Context, task *models.Task) {
	if s.notifier == nil || len(task.Team) == 0 {
		return
	}

	text := "New task has been assigned to you"
	if others := len(task.Team) - 1; others > 0 {
		text += fmt.Sprintf(" and %d others.", others)
	} else {
		text += "."
	}
	text += fmt.Sprintf(" The task priority is set a %s priority, so check and act accordingly. The task date is %s. Thank you!!!",
		task.Priority, task.Date.Format("Mon Jan 02 2006"))

	taskID := task.ID
	_, err := s.notifier.Notify(ctx, NotifyInput{
		Text:       text,
		Type:       models.NoticeTypeAlert,
		TaskID:     &taskID,
		Recipients: task.Team,
	})
	if err != nil {
		logging.Logger.WithError(err).WithField("task_id", task.ID).Error("failed to notify task team")
	}
}

// GetTask returns a task with its sub-tasks and activities
func (s *TaskService) GetTask(ctx context.Context, id uint64) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, ErrTaskNotFound, "failed to find task")
	}
	return task, nil
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	ViewerID      uint64
	ViewerIsAdmin bool
	Stage         *models.TaskStage
	Search        string
	Page          int
	PageSize      int
}

// ListTasks returns tasks newest first. Non-admin viewers only see tasks
// they are on the team of.
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	if input.Stage != nil && !input.Stage.Valid() {
		return nil, 0, validationf("Invalid stage %q", *input.Stage)
	}

	filter := repository.TaskFilter{
		Stage:    input.Stage,
		Search:   strings.TrimSpace(input.Search),
		Page:     input.Page,
		PageSize: input.PageSize,
	}
	if !input.ViewerIsAdmin {
		viewer := input.ViewerID
		filter.MemberID = &viewer
	}

	tasks, total, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// UpdateTaskInput represents input for updating a task. Nil fields are
// left unchanged.
type UpdateTaskInput struct {
	Title    *string
	Date     *time.Time
	Stage    *models.TaskStage
	Priority *models.TaskPriority
	Team     *[]uint64
	Assets   *[]string
}

// UpdateTask updates an existing task. An unknown id is never created.
func (s *TaskService) UpdateTask(ctx context.Context, id uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title, err := checkTitle(*input.Title, ErrTitleEmpty)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if input.Date != nil {
		task.Date = input.Date.UTC()
	}
	if input.Stage != nil {
		if !input.Stage.Valid() {
			return nil, validationf("Invalid stage %q", *input.Stage)
		}
		task.Stage = *input.Stage
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, validationf("Invalid priority %q", *input.Priority)
		}
		task.Priority = *input.Priority
	}
	if input.Team != nil {
		team, err := s.checkTeam(ctx, *input.Team)
		if err != nil {
			return nil, err
		}
		task.Team = team
	}
	if input.Assets != nil {
		task.Assets = nonNilStrings(*input.Assets)
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, lookup(err, ErrTaskNotFound, "failed to update task")
	}
	return s.GetTask(ctx, id)
}

// SubTaskInput describes a checklist entry.
type SubTaskInput struct {
	Title string
	Date  *time.Time
	Tag   string
}

// AddSubTask appends a sub-task. Date defaults to now.
func (s *TaskService) AddSubTask(ctx context.Context, taskID uint64, input SubTaskInput) (*models.Task, error) {
	title, err := checkTitle(input.Title, ErrTitleRequired)
	if err != nil {
		return nil, err
	}

	date := s.now()
	if input.Date != nil {
		date = input.Date.UTC()
	}

	subTask := &models.SubTask{
		Title: title,
		Date:  date,
		Tag:   strings.TrimSpace(input.Tag),
	}
	if err := s.tasks.AppendSubTask(ctx, taskID, subTask); err != nil {
		return nil, lookup(err, ErrTaskNotFound, "failed to add sub-task")
	}
	return s.GetTask(ctx, taskID)
}

// ActivityInput describes a timeline entry.
type ActivityInput struct {
	Type     models.ActivityType
	Activity string
}

// AddActivity appends a timeline entry by actorID, stamped with the
// current time. Type defaults to commented.
func (s *TaskService) AddActivity(ctx context.Context, taskID, actorID uint64, input ActivityInput) (*models.Task, error) {
	text := strings.TrimSpace(input.Activity)
	if text == "" {
		return nil, ErrActivityRequired
	}

	activityType := input.Type
	if activityType == "" {
		activityType = models.ActivityCommented
	}
	if !activityType.Valid() {
		return nil, validationf("Invalid activity type %q", activityType)
	}

	activity := &models.Activity{
		Type:     activityType,
		Activity: text,
		By:       actorID,
		Date:     s.now(),
	}
	if err := s.tasks.AppendActivity(ctx, taskID, activity); err != nil {
		return nil, lookup(err, ErrTaskNotFound, "failed to add activity")
	}
	return s.GetTask(ctx, taskID)
}

// AttachAssets uploads files and appends their URLs to the task. If any
// upload fails, nothing is appended; files that did upload stay on the
// storage provider.
func (s *TaskService) AttachAssets(ctx context.Context, taskID uint64, files []storage.File) (*models.Task, error) {
	if s.uploader == nil {
		return nil, ErrUploadsNotConfigured
	}
	switch {
	case len(files) == 0:
		return nil, ErrNoFiles
	case len(files) > constants.MaxUploadFiles:
		return nil, ErrTooManyFiles
	}

	if _, err := s.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	urls, err := s.uploader.UploadAll(ctx, files)
	if err != nil {
		return nil, &Error{
			Kind: ErrUpstream,
			Msg:  "Failed to upload assets",
			Err:  err,
		}
	}

	if err := s.tasks.AppendAssets(ctx, taskID, urls); err != nil {
		return nil, lookup(err, ErrTaskNotFound, "failed to attach assets")
	}
	return s.GetTask(ctx, taskID)
}

// DeleteTask removes a task with its sub-tasks and activities.
func (s *TaskService) DeleteTask(ctx context.Context, id uint64) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return lookup(err, ErrTaskNotFound, "failed to delete task")
	}
	return nil
}

// DuplicateTask copies a task with its sub-tasks. The copy starts with an
// empty activity timeline.
func (s *TaskService) DuplicateTask(ctx context.Context, actorID, id uint64) (*models.Task, error) {
	source, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	title := source.Title + " - Duplicate"
	if titleTooLong(title) {
		title = source.Title
	}

	subTasks := make([]models.SubTask, 0, len(source.SubTasks))
	for _, st := range source.SubTasks {
		subTasks = append(subTasks, models.SubTask{
			Title: st.Title,
			Date:  st.Date,
			Tag:   st.Tag,
		})
	}

	task := &models.Task{
		Title:      title,
		Date:       source.Date,
		Priority:   source.Priority,
		Stage:      source.Stage,
		Team:       append([]uint64{}, source.Team...),
		Assets:     append([]string{}, source.Assets...),
		Activities: []models.Activity{},
		SubTasks:   subTasks,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to duplicate task: %w", err)
	}

	s.alertTeam(ctx, task)

	logging.Logger.WithField("task_id", task.ID).WithField("source_id", id).WithField("actor_id", actorID).Info("task duplicated")
	return task, nil
}

// GenerateTasks drafts task suggestions from free text.
func (s *TaskService) GenerateTasks(ctx context.Context, text string) ([]TaskDraft, error) {
	if s.drafter == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrTextRequired
	}

	drafts, err := s.drafter.DraftTasks(ctx, text)
	if err != nil {
		return nil, &Error{Kind: ErrUpstream, Msg: "Failed to generate tasks", Err: err}
	}

	if len(drafts) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(drafts) > constants.MaxAIGeneratedTasks {
		drafts = drafts[:constants.MaxAIGeneratedTasks]
	}

	valid := make([]TaskDraft, 0, len(drafts))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, draft := range drafts {
		draft.Title = strings.TrimSpace(draft.Title)
		if draft.Title == "" || titleTooLong(draft.Title) {
			continue
		}

		priority, err := models.ParseTaskPriority(draft.Priority)
		if err != nil {
			priority = models.TaskPriorityNormal
		}
		draft.Priority = string(priority)

		if draft.Date != nil && draft.Date.Before(cutoff) {
			draft.Date = nil
		}

		valid = append(valid, draft)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}
	return valid, nil
}

// ResolveTeam loads the users referenced by the tasks' teams. Ids of deleted
// users are simply absent from the result.
func (s *TaskService) ResolveTeam(ctx context.Context, tasks ...models.Task) (map[uint64]models.User, error) {
	var ids []uint64
	for _, task := range tasks {
		ids = append(ids, task.Team...)
	}
	ids = uniqueUint64(ids)

	resolved := make(map[uint64]models.User, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	for _, u := range users {
		resolved[u.ID] = u
	}
	return resolved, nil
}

// checkTeam deduplicates ids and verifies that every one names a user.
func (s *TaskService) checkTeam(ctx context.Context, ids []uint64) ([]uint64, error) {
	team := uniqueUint64(ids)
	if len(team) == 0 {
		return team, nil
	}

	users, err := s.users.FindByIDs(ctx, team)
	if err != nil {
		return nil, fmt.Errorf("failed to verify team: %w", err)
	}
	if len(users) == len(team) {
		return team, nil
	}

	known := make(map[uint64]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
	}
	var missing []string
	for _, id := range team {
		if !known[id] {
			missing = append(missing, fmt.Sprint(id))
		}
	}
	return nil, validationf("Unknown team members: %s", strings.Join(missing, ", "))
}

func (s *TaskService) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func checkTitle(raw string, emptyErr error) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", emptyErr
	}
	if titleTooLong(title) {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// titleTooLong counts characters, matching the varchar limit of the stores.
func titleTooLong(title string) bool {
	return utf8.RuneCountInString(title) > constants.MaxTitleLength
}

func stageOrDefault(stage models.TaskStage) (models.TaskStage, error) {
	if stage == "" {
		return models.TaskStageTodo, nil
	}
	if !stage.Valid() {
		return "", validationf("Invalid stage %q", stage)
	}
	return stage, nil
}

func priorityOrDefault(priority models.TaskPriority) (models.TaskPriority, error) {
	if priority == "" {
		return models.TaskPriorityNormal, nil
	}
	if !priority.Valid() {
		return "", validationf("Invalid priority %q", priority)
	}
	return priority, nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
