package dto

import (
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64          `json:"id"`
	Name      string          `json:"name"`
	Title     string          `json:"title"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	IsAdmin   bool            `json:"isAdmin"`
	IsActive  bool            `json:"isActive"`
	LastLogin *time.Time      `json:"lastLogin,omitempty"`
	Initials  string          `json:"initials"`
	CreatedAt time.Time       `json:"createdAt"`
}

// TeamMemberDTO is the short form of a user embedded in tasks. Only ID is
// set when the user no longer exists.
type TeamMemberDTO struct {
	ID    uint64          `json:"id"`
	Name  string          `json:"name,omitempty"`
	Title string          `json:"title,omitempty"`
	Email string          `json:"email,omitempty"`
	Role  models.UserRole `json:"role,omitempty"`
}

// NoticeDTO represents a notification in API responses
type NoticeDTO struct {
	ID        uint64            `json:"id"`
	Text      string            `json:"text"`
	NotiType  models.NoticeType `json:"notiType"`
	Task      *uint64           `json:"task,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Title:     user.Title,
		Email:     user.Email,
		Role:      user.Role,
		IsAdmin:   user.IsAdmin,
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
		Initials:  user.Initials(),
		CreatedAt: user.CreatedAt,
	}
}

func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}

func ToNoticeDTOs(notices []models.Notice) []NoticeDTO {
	out := make([]NoticeDTO, len(notices))
	for i, n := range notices {
		out[i] = NoticeDTO{
			ID:        n.ID,
			Text:      n.Text,
			NotiType:  n.NotiType,
			Task:      n.TaskID,
			CreatedAt: n.CreatedAt,
		}
	}
	return out
}
