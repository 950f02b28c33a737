package services

import (
	"context"
	"testing"

	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/testutil"
	"gorm.io/gorm"
)

type serviceEnv struct {
	db            *gorm.DB
	users         *UserService
	tasks         *TaskService
	notifications *NotificationService
	ctx           context.Context
}

func setupServiceEnv(t *testing.T, uploader AssetUploader, drafter TaskDrafter) serviceEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	userRepo := repository.NewUserRepository(db)
	notifications := NewNotificationService(repository.NewNoticeRepository(db))

	return serviceEnv{
		db:            db,
		users:         NewUserService(userRepo),
		tasks:         NewTaskService(repository.NewTaskRepository(db), userRepo, notifications, uploader, drafter),
		notifications: notifications,
		ctx:           context.Background(),
	}
}
