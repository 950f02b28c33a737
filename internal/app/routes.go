package app

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/config"
	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/handlers"
	"github.com/yukikurage/taskboard-api/internal/logging"
	"github.com/yukikurage/taskboard-api/internal/middleware"
)

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg *config.Config, sessionStore sessions.Store, store *Store, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.RecoveryWithWriter(logging.Logger.Writer()))
	r.Use(logging.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.Origins))
	r.Use(sessions.Sessions(constants.SessionCookieName, sessionStore))

	RegisterRoutes(r, store, svc)
	return r
}

// RegisterRoutes mounts the health check and the /api routes.
func RegisterRoutes(r *gin.Engine, store *Store, svc Services) {
	userHandler := handlers.NewUserHandler(svc.Users, svc.Notifications)
	taskHandler := handlers.NewTaskHandler(svc.Tasks)

	requireAuth := middleware.RequireAuth(store.Users)
	requireAdmin := middleware.RequireAdmin()
	requireID := middleware.RequireIDParam()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Taskboard API is running",
		})
	})

	api := r.Group("/api")
	{
		user := api.Group("/user")
		{
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
		}

		task := api.Group("/task")
		task.Use(requireAuth)
		{
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
		}
	}
}
