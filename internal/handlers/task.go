package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/dto"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/logging"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/services"
	"github.com/yukikurage/taskboard-api/internal/storage"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

type TaskHandler struct {
	tasks *services.TaskService
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{
		tasks: tasks,
	}
}

// respondTask writes a task with its team resolved to user summaries.
func (h *TaskHandler) respondTask(c *gin.Context, status int, task *models.Task) {
	users, err := h.tasks.ResolveTeam(c.Request.Context(), *task)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, dto.ToTaskDTO(*task, users))
}

// ListTasks returns tasks visible to the current user
func (h *TaskHandler) ListTasks(c *gin.Context) {
	viewer, _ := middleware.CurrentUser(c)

	input := services.ListTasksInput{
		ViewerID:      viewer.ID,
		ViewerIsAdmin: viewer.IsAdmin,
		Search:        c.Query("search"),
	}
	if raw := c.Query("stage"); raw != "" {
		stage, err := models.ParseTaskStage(raw)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
		input.Stage = &stage
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	tasks, total, err := h.tasks.ListTasks(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	users, err := h.tasks.ResolveTeam(c.Request.Context(), tasks...)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, users, params.Page, params.Limit, total))
}

// GetTask returns a single task
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, _ := middleware.GetIDParam(c)

	task, err := h.tasks.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTask(c, http.StatusOK, task)
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title    string   `json:"title"`
		Date     string   `json:"date"`
		Stage    string   `json:"stage"`
		Priority string   `json:"priority"`
		Team     []uint64 `json:"team"`
		Assets   []string `json:"assets"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.CreateTaskInput{
		Title:  req.Title,
		Team:   req.Team,
		Assets: req.Assets,
	}

	var err error
	if input.Date, err = parseDate(req.Date); err != nil {
		apierrors.BadRequest(c, "Invalid date")
		return
	}
	if req.Stage != "" {
		if input.Stage, err = models.ParseTaskStage(req.Stage); err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
	}
	if req.Priority != "" {
		if input.Priority, err = models.ParseTaskPriority(req.Priority); err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
	}

	actorID, _ := middleware.GetUserID(c)
	task, err := h.tasks.CreateTask(c.Request.Context(), actorID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTask(c, http.StatusCreated, task)
}

// DuplicateTask copies a task
func (h *TaskHandler) DuplicateTask(c *gin.Context) {
	id, _ := middleware.GetIDParam(c)
	actorID, _ := middleware.GetUserID(c)

	task, err := h.tasks.DuplicateTask(c.Request.Context(), actorID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTask(c, http.StatusCreated, task)
}

// UpdateTask updates the given fields of a task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		Title    *string   `json:"title"`
		Date     *string   `json:"date"`
		Stage    *string   `json:"stage"`
		Priority *string   `json:"priority"`
		Team     *[]uint64 `json:"team"`
		Assets   *[]string `json:"assets"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:  req.Title,
		Team:   req.Team,
		Assets: req.Assets,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil || date == nil {
			apierrors.BadRequest(c, "Invalid date")
			return
		}
		input.Date = date
	}
	if req.Stage != nil {
		stage, err := models.ParseTaskStage(*req.Stage)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
		input.Stage = &stage
	}
	if req.Priority != nil {
		priority, err := models.ParseTaskPriority(*req.Priority)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
		input.Priority = &priority
	}

	id, _ := middleware.GetIDParam(c)
	task, err := h.tasks.UpdateTask(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTask(c, http.StatusOK, task)
}

// AddSubTask appends a checklist entry
func (h *TaskHandler) AddSubTask(c *gin.Context) {
	type SubTaskRequest struct {
		Title string `json:"title"`
		Date  string `json:"date"`
		Tag   string `json:"tag"`
	}

	var req SubTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		apierrors.BadRequest(c, "Invalid date")
		return
	}

	id, _ := middleware.GetIDParam(c)
	task, err := h.tasks.AddSubTask(c.Request.Context(), id, services.SubTaskInput{
		Title: req.Title,
		Date:  date,
		Tag:   req.Tag,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTask(c, http.StatusOK, task)
}

// AddActivity appends a timeline entry by the current user
func (h *TaskHandler) AddActivity(c *gin.Context) {
	type ActivityRequest struct {
		Type     string `json:"type"`
		Activity string `json:"activity"`
	}

	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var input services.ActivityInput
	input.Activity = req.Activity
	if req.Type != "" {
		activityType, err := models.ParseActivityType(req.Type)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
		input.Type = activityType
	}

	id, _ := middleware.GetIDParam(c)
	actorID, _ := middleware.GetUserID(c)
	task, err := h.tasks.AddActivity(c.Request.Context(), id, actorID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTask(c, http.StatusOK, task)
}

// AttachAssets uploads the multipart "assets" files and appends their URLs
func (h *TaskHandler) AttachAssets(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		apierrors.BadRequest(c, "Expected a multipart form")
		return
	}

	headers := form.File["assets"]
	files := make([]storage.File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > constants.MaxUploadFileBytes {
			apierrors.BadRequest(c, fmt.Sprintf("%s exceeds the %d MB limit", fh.Filename, constants.MaxUploadFileBytes>>20))
			return
		}
		files = append(files, storage.File{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	id, _ := middleware.GetIDParam(c)
	task, err := h.tasks.AttachAssets(c.Request.Context(), id, files)
	if err != nil {
		respondError(c, err)
		return
	}

	logging.FromContext(c).WithField("task_id", id).WithField("files", len(files)).Info("assets attached")
	h.respondTask(c, http.StatusOK, task)
}

// GenerateTasks drafts tasks from free text using AI. Nothing is stored.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Text is required")
		return
	}

	drafts, err := h.tasks.GenerateTasks(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": drafts,
	})
}

// DeleteTask removes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, _ := middleware.GetIDParam(c)

	if err := h.tasks.DeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}
