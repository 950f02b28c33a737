package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func setupMongo(t *testing.T) (Repositories, *mongo.Database) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := mongodb.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "Failed to start MongoDB container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	db := client.Database("taskboard_test")
	require.NoError(t, EnsureIndexes(ctx, db))
	return New(db), db
}

func TestMongoStore(t *testing.T) {
	repos, db := setupMongo(t)
	ctx := context.Background()

	t.Run("users", func(t *testing.T) {
		ann := &models.User{Name: "Ann", Title: "Lead", Email: "Ann@Example.com", PasswordHash: "x", Role: models.RoleManager, IsActive: true}
		require.NoError(t, repos.Users.Create(ctx, ann))
		assert.NotZero(t, ann.ID)

		dup := &models.User{Name: "Ann 2", Email: "ann@example.com", Role: models.RoleTester}
		assert.ErrorIs(t, repos.Users.Create(ctx, dup), repository.ErrDuplicateKey)

		found, err := repos.Users.FindByEmail(ctx, "ANN@example.com")
		require.NoError(t, err)
		assert.Equal(t, ann.ID, found.ID)

		found.IsActive = false
		require.NoError(t, repos.Users.Update(ctx, found))
		reloaded, err := repos.Users.FindByID(ctx, ann.ID)
		require.NoError(t, err)
		assert.False(t, reloaded.IsActive)

		_, err = repos.Users.FindByID(ctx, 9999)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.ErrorIs(t, repos.Users.Delete(ctx, 9999), repository.ErrNotFound)
	})

	t.Run("tasks", func(t *testing.T) {
		require.NoError(t, db.Collection(tasksCollection).Drop(ctx))

		task := &models.Task{
			Title:    "Design Review",
			Date:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Priority: models.TaskPriorityHigh,
			Stage:    models.TaskStageTodo,
			Team:     []uint64{3, 1},
		}
		require.NoError(t, repos.Tasks.Create(ctx, task))

		require.NoError(t, repos.Tasks.AppendSubTask(ctx, task.ID, &models.SubTask{Title: "agenda", Date: time.Now().UTC()}))
		require.NoError(t, repos.Tasks.AppendActivity(ctx, task.ID, &models.Activity{Type: models.ActivityCommented, Activity: "ok", By: 1, Date: time.Now().UTC()}))
		require.NoError(t, repos.Tasks.AppendAssets(ctx, task.ID, []string{"a", "b"}))

		found, err := repos.Tasks.FindByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint64{3, 1}, found.Team)
		assert.Equal(t, []string{"a", "b"}, found.Assets)
		require.Len(t, found.SubTasks, 1)
		assert.NotZero(t, found.SubTasks[0].ID)
		require.Len(t, found.Activities, 1)

		member := uint64(1)
		tasks, total, err := repos.Tasks.List(ctx, repository.TaskFilter{MemberID: &member, Search: "design", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Len(t, tasks, 1)

		ghost := &models.Task{ID: 9999, Title: "ghost"}
		assert.ErrorIs(t, repos.Tasks.Update(ctx, ghost), repository.ErrNotFound)
		count, err := db.Collection(tasksCollection).CountDocuments(ctx, map[string]any{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		require.NoError(t, repos.Tasks.Delete(ctx, task.ID))
		assert.ErrorIs(t, repos.Tasks.Delete(ctx, task.ID), repository.ErrNotFound)
	})

	t.Run("notices", func(t *testing.T) {
		notice := &models.Notice{Text: "hello", NotiType: models.NoticeTypeAlert, Recipients: []uint64{1, 2}}
		require.NoError(t, repos.Notices.Create(ctx, notice))

		unread, err := repos.Notices.ListUnread(ctx, 1)
		require.NoError(t, err)
		require.Len(t, unread, 1)

		require.NoError(t, repos.Notices.MarkRead(ctx, notice.ID, 1))
		require.NoError(t, repos.Notices.MarkRead(ctx, notice.ID, 1))
		assert.ErrorIs(t, repos.Notices.MarkRead(ctx, notice.ID, 3), repository.ErrNotFound)

		unread, err = repos.Notices.ListUnread(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, unread)

		require.NoError(t, repos.Notices.MarkAllRead(ctx, 2))
		unread, err = repos.Notices.ListUnread(ctx, 2)
		require.NoError(t, err)
		assert.Empty(t, unread)
	})
}
