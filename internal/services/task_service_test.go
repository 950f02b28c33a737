package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/storage"
	"github.com/yukikurage/taskboard-api/internal/testutil"
)

type fakeUploader struct {
	urls []string
	err  error
}

func (f *fakeUploader) UploadAll(_ context.Context, files []storage.File) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.urls[:len(files)], nil
}

type fakeDrafter struct {
	drafts []TaskDraft
	err    error
}

func (f *fakeDrafter) DraftTasks(context.Context, string) ([]TaskDraft, error) {
	return f.drafts, f.err
}

func textFile(name string) storage.File {
	return storage.File{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("data")), nil },
	}
}

func TestTaskService_CreateThenList(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)
	admin := testutil.NewTestUser(t, env.db, "Admin", "admin@example.com", testutil.WithAdmin())
	u1 := testutil.NewTestUser(t, env.db, "One", "one@example.com")
	u2 := testutil.NewTestUser(t, env.db, "Two", "two@example.com")

	created, err := env.tasks.CreateTask(env.ctx, admin.ID, CreateTaskInput{
		Title:    "Design Review",
		Stage:    models.TaskStageTodo,
		Priority: models.TaskPriorityHigh,
		Team:     []uint64{u1.ID, u2.ID, u1.ID},
	})
	require.NoError(t, err)

	tasks, total, err := env.tasks.ListTasks(env.ctx, ListTasksInput{ViewerID: admin.ID, ViewerIsAdmin: true, Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	got := tasks[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Design Review", got.Title)
	assert.Equal(t, models.TaskStageTodo, got.Stage)
	assert.Equal(t, models.TaskPriorityHigh, got.Priority)
	assert.Equal(t, []uint64{u1.ID, u2.ID}, got.Team)
	assert.Empty(t, got.Activities)
	assert.Empty(t, got.SubTasks)
}

func TestTaskService_CreateTask_Defaults(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)
	fixed := time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC)
	env.tasks.now = func() time.Time { return fixed }

	task, err := env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: "  Plan  "})
	require.NoError(t, err)
	assert.Equal(t, "Plan", task.Title)
	assert.Equal(t, models.TaskStageTodo, task.Stage)
	assert.Equal(t, models.TaskPriorityNormal, task.Priority)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), task.Date)
	assert.NotNil(t, task.Assets)
}

func TestTaskService_CreateTask_Validation(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)

	_, err := env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: " "})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: "x", Stage: "DOING"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: "x", Priority: "URGENT"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: "x", Team: []uint64{12345}})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "12345")

	var count int64
	require.NoError(t, env.db.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTaskService_CreateTask_NotifiesTeam(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)
	u1 := testutil.NewTestUser(t, env.db, "One", "one@example.com")
	u2 := testutil.NewTestUser(t, env.db, "Two", "two@example.com")
	outsider := testutil.NewTestUser(t, env.db, "Outsider", "out@example.com")

	date := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	task, err := env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{
		Title:    "Release",
		Date:     &date,
		Priority: models.TaskPriorityHigh,
		Team:     []uint64{u1.ID, u2.ID},
	})
	require.NoError(t, err)

	notices, err := env.notifications.GetNotificationList(env.ctx, u2.ID)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, models.NoticeTypeAlert, notices[0].NotiType)
	require.NotNil(t, notices[0].TaskID)
	assert.Equal(t, task.ID, *notices[0].TaskID)
	assert.Equal(t,
		"New task has been assigned to you and 1 others. The task priority is set a HIGH priority, so check and act accordingly. The task date is Tue Mar 04 2025. Thank you!!!",
		notices[0].Text)

	notices, err = env.notifications.GetNotificationList(env.ctx, outsider.ID)
	require.NoError(t, err)
	assert.Empty(t, notices)
}

func TestTaskService_ListTasks_NonAdminSeesOwnTasks(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)
	member := testutil.NewTestUser(t, env.db, "Member", "member@example.com")

	_, err := env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: "Mine", Team: []uint64{member.ID}})
	require.NoError(t, err)
	_, err = env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: "Not mine"})
	require.NoError(t, err)

	tasks, total, err := env.tasks.ListTasks(env.ctx, ListTasksInput{ViewerID: member.ID, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Mine", tasks[0].Title)

	_, total, err = env.tasks.ListTasks(env.ctx, ListTasksInput{ViewerID: member.ID, ViewerIsAdmin: true, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestTaskService_UpdateTask(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)

	title := "Renamed"
	_, err := env.tasks.UpdateTask(env.ctx, 404, UpdateTaskInput{Title: &title})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	var count int64
	require.NoError(t, env.db.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count)

	task, err := env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: "Original", Priority: models.TaskPriorityLow})
	require.NoError(t, err)

	stage := models.TaskStageInProgress
	updated, err := env.tasks.UpdateTask(env.ctx, task.ID, UpdateTaskInput{Title: &title, Stage: &stage})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, models.TaskStageInProgress, updated.Stage)
	assert.Equal(t, models.TaskPriorityLow, updated.Priority)

	empty := ""
	_, err = env.tasks.UpdateTask(env.ctx, task.ID, UpdateTaskInput{Title: &empty})
	assert.ErrorIs(t, err, ErrTitleEmpty)
}

func TestTaskService_SubTasksAndActivities(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)
	task, err := env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: "Checklist"})
	require.NoError(t, err)

	_, err = env.tasks.AddSubTask(env.ctx, task.ID, SubTaskInput{Title: "first", Tag: "design"})
	require.NoError(t, err)
	withSubs, err := env.tasks.AddSubTask(env.ctx, task.ID, SubTaskInput{Title: "second"})
	require.NoError(t, err)
	require.Len(t, withSubs.SubTasks, 2)
	assert.Equal(t, "first", withSubs.SubTasks[0].Title)
	assert.Equal(t, "design", withSubs.SubTasks[0].Tag)

	_, err = env.tasks.AddSubTask(env.ctx, task.ID, SubTaskInput{Title: ""})
	assert.ErrorIs(t, err, ErrTitleRequired)
	_, err = env.tasks.AddSubTask(env.ctx, 404, SubTaskInput{Title: "x"})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	withActivity, err := env.tasks.AddActivity(env.ctx, task.ID, 7, ActivityInput{Activity: "looks good"})
	require.NoError(t, err)
	require.Len(t, withActivity.Activities, 1)
	assert.Equal(t, models.ActivityCommented, withActivity.Activities[0].Type)
	assert.EqualValues(t, 7, withActivity.Activities[0].By)

	_, err = env.tasks.AddActivity(env.ctx, task.ID, 7, ActivityInput{Activity: " "})
	assert.ErrorIs(t, err, ErrActivityRequired)
}

func TestTaskService_AttachAssets(t *testing.T) {
	uploader := &fakeUploader{urls: []string{"https://cdn/a.png", "https://cdn/b.png"}}
	env := setupServiceEnv(t, uploader, nil)
	task, err := env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: "Assets", Assets: []string{"https://cdn/old.png"}})
	require.NoError(t, err)

	updated, err := env.tasks.AttachAssets(env.ctx, task.ID, []storage.File{textFile("a.png"), textFile("b.png")})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/old.png", "https://cdn/a.png", "https://cdn/b.png"}, updated.Assets)

	_, err = env.tasks.AttachAssets(env.ctx, task.ID, nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestTaskService_AttachAssets_PartialFailureAppendsNothing(t *testing.T) {
	uploader := &fakeUploader{err: errors.Join(errors.New("b.png: status 500"), errors.New("c.png: timeout"))}
	env := setupServiceEnv(t, uploader, nil)
	task, err := env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: "Assets"})
	require.NoError(t, err)

	_, err = env.tasks.AttachAssets(env.ctx, task.ID, []storage.File{textFile("a.png"), textFile("b.png"), textFile("c.png")})
	require.ErrorIs(t, err, ErrUpstream)

	var svcErr *Error
	require.True(t, errors.As(err, &svcErr))
	assert.Contains(t, svcErr.Err.Error(), "c.png")

	unchanged, err := env.tasks.GetTask(env.ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, unchanged.Assets)
}

func TestTaskService_AttachAssets_NotConfigured(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)

	_, err := env.tasks.AttachAssets(env.ctx, 1, []storage.File{textFile("a.png")})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTaskService_DuplicateTask(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)
	member := testutil.NewTestUser(t, env.db, "Member", "member@example.com")

	source, err := env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{
		Title:    "Launch",
		Stage:    models.TaskStageInProgress,
		Priority: models.TaskPriorityMedium,
		Team:     []uint64{member.ID},
		Assets:   []string{"https://cdn/brief.pdf"},
	})
	require.NoError(t, err)
	_, err = env.tasks.AddSubTask(env.ctx, source.ID, SubTaskInput{Title: "checklist"})
	require.NoError(t, err)
	_, err = env.tasks.AddActivity(env.ctx, source.ID, 1, ActivityInput{Activity: "started"})
	require.NoError(t, err)

	dup, err := env.tasks.DuplicateTask(env.ctx, 1, source.ID)
	require.NoError(t, err)
	assert.NotEqual(t, source.ID, dup.ID)
	assert.Equal(t, "Launch - Duplicate", dup.Title)
	assert.Equal(t, models.TaskStageInProgress, dup.Stage)
	assert.Equal(t, []uint64{member.ID}, dup.Team)
	assert.Equal(t, []string{"https://cdn/brief.pdf"}, dup.Assets)
	require.Len(t, dup.SubTasks, 1)
	assert.Equal(t, "checklist", dup.SubTasks[0].Title)
	assert.Empty(t, dup.Activities)

	_, err = env.tasks.DuplicateTask(env.ctx, 1, 404)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_DeleteTask(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)
	task, err := env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: "Temp"})
	require.NoError(t, err)

	require.NoError(t, env.tasks.DeleteTask(env.ctx, task.ID))
	assert.ErrorIs(t, env.tasks.DeleteTask(env.ctx, task.ID), ErrTaskNotFound)
	_, err = env.tasks.GetTask(env.ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskService_TitleLengthCountsCharacters(t *testing.T) {
	longest := strings.Repeat("日", 255)
	tooLong := longest + "本"
	drafter := &fakeDrafter{drafts: []TaskDraft{
		{Title: longest, Priority: "LOW"},
		{Title: tooLong, Priority: "LOW"},
	}}
	env := setupServiceEnv(t, nil, drafter)

	task, err := env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: longest})
	require.NoError(t, err)
	assert.Equal(t, longest, task.Title)

	_, err = env.tasks.CreateTask(env.ctx, 1, CreateTaskInput{Title: tooLong})
	assert.ErrorIs(t, err, ErrTitleTooLong)

	_, err = env.tasks.UpdateTask(env.ctx, task.ID, UpdateTaskInput{Title: &tooLong})
	assert.ErrorIs(t, err, ErrTitleTooLong)

	_, err = env.tasks.AddSubTask(env.ctx, task.ID, SubTaskInput{Title: longest})
	require.NoError(t, err)
	_, err = env.tasks.AddSubTask(env.ctx, task.ID, SubTaskInput{Title: tooLong})
	assert.ErrorIs(t, err, ErrTitleTooLong)

	drafts, err := env.tasks.GenerateTasks(env.ctx, "notes")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, longest, drafts[0].Title)
}

func TestTaskService_GenerateTasks(t *testing.T) {
	past := time.Now().Add(-72 * time.Hour)
	future := time.Now().Add(72 * time.Hour)
	drafter := &fakeDrafter{drafts: []TaskDraft{
		{Title: "Write report", Priority: "high", Date: &future},
		{Title: "  ", Priority: "LOW"},
		{Title: "Call vendor", Priority: "whenever", Date: &past},
	}}
	env := setupServiceEnv(t, nil, drafter)

	drafts, err := env.tasks.GenerateTasks(env.ctx, "notes from the meeting")
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "HIGH", drafts[0].Priority)
	assert.NotNil(t, drafts[0].Date)
	assert.Equal(t, "NORMAL", drafts[1].Priority)
	assert.Nil(t, drafts[1].Date)

	_, err = env.tasks.GenerateTasks(env.ctx, "   ")
	assert.ErrorIs(t, err, ErrTextRequired)

	drafter.err = errors.New("rate limited")
	_, err = env.tasks.GenerateTasks(env.ctx, "notes")
	assert.ErrorIs(t, err, ErrUpstream)

	var count int64
	require.NoError(t, env.db.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTaskService_GenerateTasks_NotConfigured(t *testing.T) {
	env := setupServiceEnv(t, nil, nil)

	_, err := env.tasks.GenerateTasks(env.ctx, "anything")
	assert.ErrorIs(t, err, ErrAIServiceNotConfigured)
}
