package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/services"
	"github.com/yukikurage/taskboard-api/internal/testutil"
	"gorm.io/gorm"
)

// handlerEnv wires handlers to a SQLite database behind the same middleware
// chain the server uses.
type handlerEnv struct {
	db     *gorm.DB
	router *gin.Engine
	users  *services.UserService
	tasks  *services.TaskService
}

func setupHandlerEnv(t *testing.T, uploader services.AssetUploader, drafter services.TaskDrafter) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	userRepo := repository.NewUserRepository(db)
	notifications := services.NewNotificationService(repository.NewNoticeRepository(db))
	userService := services.NewUserService(userRepo)
	taskService := services.NewTaskService(repository.NewTaskRepository(db), userRepo, notifications, uploader, drafter)

	userHandler := NewUserHandler(userService, notifications)
	taskHandler := NewTaskHandler(taskService)

	requireAuth := middleware.RequireAuth(userRepo)
	requireAdmin := middleware.RequireAdmin()
	requireID := middleware.RequireIDParam()

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))

	user := r.Group("/api/user")
	user.POST("/register", userHandler.Register)
	user.POST("/login", userHandler.Login)
	user.POST("/logout", userHandler.Logout)
	user.GET("/get-team", requireAuth, requireAdmin, userHandler.GetTeamList)
	user.GET("/notifications", requireAuth, userHandler.GetNotificationsList)
	user.PUT("/profile", requireAuth, userHandler.UpdateUserProfile)
	user.PUT("/read-noti", requireAuth, userHandler.MarkNotificationRead)
	user.PUT("/change-password", requireAuth, userHandler.ChangeUserPassword)
	user.PUT("/:id", requireAuth, requireAdmin, requireID, userHandler.ActivateUserProfile)
	user.DELETE("/:id", requireAuth, requireAdmin, requireID, userHandler.DeleteUserProfile)

	task := r.Group("/api/task", requireAuth)
	task.POST("/create", requireAdmin, taskHandler.CreateTask)
	task.POST("/duplicate/:id", requireAdmin, requireID, taskHandler.DuplicateTask)
	task.POST("/generate", requireAdmin, taskHandler.GenerateTasks)
	task.GET("", taskHandler.ListTasks)
	task.GET("/:id", requireID, taskHandler.GetTask)
	task.PUT("/update/:id", requireAdmin, requireID, taskHandler.UpdateTask)
	task.POST("/create-subtask/:id", requireAdmin, requireID, taskHandler.AddSubTask)
	task.POST("/activity/:id", requireID, taskHandler.AddActivity)
	task.POST("/assets/:id", requireAdmin, requireID, taskHandler.AttachAssets)
	task.DELETE("/:id", requireAdmin, requireID, taskHandler.DeleteTask)

	return &handlerEnv{
		db:     db,
		router: r,
		users:  userService,
		tasks:  taskService,
	}
}

// do sends a JSON request, attaching cookies when given.
func (e *handlerEnv) do(method, url string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		raw, _ := json.Marshal(body)
		req = httptest.NewRequest(method, url, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login signs in with the default test password and returns the session cookie.
func (e *handlerEnv) login(t *testing.T, email string) *http.Cookie {
	t.Helper()

	w := e.do(http.MethodPost, "/api/user/login", map[string]string{
		"email":    email,
		"password": testutil.DefaultPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == constants.SessionCookieName {
			return c
		}
	}
	t.Fatalf("login for %s set no session cookie", email)
	return nil
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func uintString(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func boolPtr(b bool) *bool { return &b }
