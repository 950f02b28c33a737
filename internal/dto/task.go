package dto

import (
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
)

// ActivityDTO represents a timeline entry in API responses
type ActivityDTO struct {
	ID       uint64              `json:"id"`
	Type     models.ActivityType `json:"type"`
	Activity string              `json:"activity"`
	By       uint64              `json:"by"`
	Date     time.Time           `json:"date"`
}

// SubTaskDTO represents a checklist entry in API responses
type SubTaskDTO struct {
	ID    uint64    `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
	Tag   string    `json:"tag"`
}

// TaskDTO represents a task in API responses. Slices are never null.
type TaskDTO struct {
	ID         uint64              `json:"id"`
	Title      string              `json:"title"`
	Date       time.Time           `json:"date"`
	Priority   models.TaskPriority `json:"priority"`
	Stage      models.TaskStage    `json:"stage"`
	Team       []TeamMemberDTO     `json:"team"`
	Assets     []string            `json:"assets"`
	Activities []ActivityDTO       `json:"activities"`
	SubTasks   []SubTaskDTO        `json:"subTasks"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalCount int64     `json:"totalCount"`
	TotalPages int       `json:"totalPages"`
}

// ToTaskDTO converts a Task model to TaskDTO. users supplies display fields
// for the team; members missing from it are rendered by id only.
func ToTaskDTO(task models.Task, users map[uint64]models.User) TaskDTO {
	dto := TaskDTO{
		ID:         task.ID,
		Title:      task.Title,
		Date:       task.Date,
		Priority:   task.Priority,
		Stage:      task.Stage,
		Team:       make([]TeamMemberDTO, len(task.Team)),
		Assets:     make([]string, len(task.Assets)),
		Activities: make([]ActivityDTO, len(task.Activities)),
		SubTasks:   make([]SubTaskDTO, len(task.SubTasks)),
		CreatedAt:  task.CreatedAt,
		UpdatedAt:  task.UpdatedAt,
	}

	for i, id := range task.Team {
		member := TeamMemberDTO{ID: id}
		if u, ok := users[id]; ok {
			member.Name = u.Name
			member.Title = u.Title
			member.Email = u.Email
			member.Role = u.Role
		}
		dto.Team[i] = member
	}
	copy(dto.Assets, task.Assets)
	for i, a := range task.Activities {
		dto.Activities[i] = ActivityDTO{
			ID:       a.ID,
			Type:     a.Type,
			Activity: a.Activity,
			By:       a.By,
			Date:     a.Date,
		}
	}
	for i, st := range task.SubTasks {
		dto.SubTasks[i] = SubTaskDTO{
			ID:    st.ID,
			Title: st.Title,
			Date:  st.Date,
			Tag:   st.Tag,
		}
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, users map[uint64]models.User, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task, users)
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
