package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidEnum is returned when a value is outside of its enumeration.
var ErrInvalidEnum = errors.New("invalid enumeration value")

type TaskStage string

const (
	TaskStageTodo       TaskStage = "TODO"
	TaskStageInProgress TaskStage = "IN PROGRESS"
	TaskStageCompleted  TaskStage = "COMPLETED"
)

// ParseTaskStage accepts the canonical stage names in any case. The
// lower-case "in progress" and "in-progress" spellings used by board
// columns are accepted too.
func ParseTaskStage(s string) (TaskStage, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TODO":
		return TaskStageTodo, nil
	case "IN PROGRESS", "IN-PROGRESS":
		return TaskStageInProgress, nil
	case "COMPLETED":
		return TaskStageCompleted, nil
	default:
		return "", fmt.Errorf("%w: stage %q", ErrInvalidEnum, s)
	}
}

func (s TaskStage) Valid() bool {
	switch s {
	case TaskStageTodo, TaskStageInProgress, TaskStageCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityNormal TaskPriority = "NORMAL"
	TaskPriorityLow    TaskPriority = "LOW"
)

func ParseTaskPriority(s string) (TaskPriority, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return TaskPriorityHigh, nil
	case "MEDIUM":
		return TaskPriorityMedium, nil
	case "NORMAL":
		return TaskPriorityNormal, nil
	case "LOW":
		return TaskPriorityLow, nil
	default:
		return "", fmt.Errorf("%w: priority %q", ErrInvalidEnum, s)
	}
}

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityHigh, TaskPriorityMedium, TaskPriorityNormal, TaskPriorityLow:
		return true
	}
	return false
}

type ActivityType string

const (
	ActivityAssigned   ActivityType = "assigned"
	ActivityStarted    ActivityType = "started"
	ActivityInProgress ActivityType = "in progress"
	ActivityBug        ActivityType = "bug"
	ActivityCompleted  ActivityType = "completed"
	ActivityCommented  ActivityType = "commented"
)

func ParseActivityType(s string) (ActivityType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assigned":
		return ActivityAssigned, nil
	case "started":
		return ActivityStarted, nil
	case "in progress", "in-progress":
		return ActivityInProgress, nil
	case "bug":
		return ActivityBug, nil
	case "completed":
		return ActivityCompleted, nil
	case "commented":
		return ActivityCommented, nil
	default:
		return "", fmt.Errorf("%w: activity type %q", ErrInvalidEnum, s)
	}
}

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityAssigned, ActivityStarted, ActivityInProgress, ActivityBug, ActivityCompleted, ActivityCommented:
		return true
	}
	return false
}

// Task is a unit of work on the board. Team holds weak references to users;
// the GORM store keeps them in task_members, the Mongo store embeds them.
type Task struct {
	ID         uint64       `gorm:"primarykey" json:"id" bson:"_id"`
	Title      string       `gorm:"type:varchar(255);not null" json:"title" bson:"title"`
	Date       time.Time    `gorm:"not null" json:"date" bson:"date"`
	Priority   TaskPriority `gorm:"type:varchar(20);not null;default:'NORMAL'" json:"priority" bson:"priority"`
	Stage      TaskStage    `gorm:"type:varchar(20);not null;default:'TODO'" json:"stage" bson:"stage"`
	Team       []uint64     `gorm:"-" json:"team" bson:"team"`
	Assets     []string     `gorm:"serializer:json;type:text" json:"assets" bson:"assets"`
	Activities []Activity   `gorm:"foreignKey:TaskID" json:"activities" bson:"activities"`
	SubTasks   []SubTask    `gorm:"foreignKey:TaskID" json:"subTasks" bson:"subTasks"`
	CreatedAt  time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt" bson:"updatedAt"`

	// Relations
	Members []TaskMember `gorm:"foreignKey:TaskID" json:"-" bson:"-"`
}

type Activity struct {
	ID       uint64       `gorm:"primarykey" json:"id" bson:"id"`
	TaskID   uint64       `gorm:"index;not null" json:"-" bson:"-"`
	Type     ActivityType `gorm:"type:varchar(20);not null" json:"type" bson:"type"`
	Activity string       `gorm:"type:text" json:"activity" bson:"activity"`
	By       uint64       `gorm:"not null" json:"by" bson:"by"`
	Date     time.Time    `gorm:"not null" json:"date" bson:"date"`
}

type SubTask struct {
	ID     uint64    `gorm:"primarykey" json:"id" bson:"id"`
	TaskID uint64    `gorm:"index;not null" json:"-" bson:"-"`
	Title  string    `gorm:"type:varchar(255);not null" json:"title" bson:"title"`
	Date   time.Time `gorm:"not null" json:"date" bson:"date"`
	Tag    string    `gorm:"type:varchar(100)" json:"tag" bson:"tag"`
}
