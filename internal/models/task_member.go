package models

import "time"

// TaskMember is a team slot on a task. Position keeps the order in which
// members were added. UserID is not a foreign key: deleting a user leaves
// the slot in place.
type TaskMember struct {
	TaskID    uint64    `gorm:"primarykey" json:"task_id"`
	UserID    uint64    `gorm:"primarykey;index" json:"user_id"`
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
