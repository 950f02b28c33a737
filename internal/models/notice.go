package models

import "time"

type NoticeType string

const (
	NoticeTypeAlert   NoticeType = "alert"
	NoticeTypeMessage NoticeType = "message"
)

// Notice is a notification addressed to one or more users. ReadBy lists the
// recipients that acknowledged it.
type Notice struct {
	ID         uint64     `gorm:"primarykey" json:"id" bson:"_id"`
	Text       string     `gorm:"type:text;not null" json:"text" bson:"text"`
	NotiType   NoticeType `gorm:"type:varchar(20);not null;default:'alert'" json:"notiType" bson:"notiType"`
	TaskID     *uint64    `gorm:"index" json:"task,omitempty" bson:"task,omitempty"`
	Recipients []uint64   `gorm:"-" json:"team" bson:"team"`
	ReadBy     []uint64   `gorm:"-" json:"isRead" bson:"isRead"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`

	// Relations
	RecipientRows []NoticeRecipient `gorm:"foreignKey:NoticeID" json:"-" bson:"-"`
	ReadRows      []NoticeRead      `gorm:"foreignKey:NoticeID" json:"-" bson:"-"`
}

type NoticeRecipient struct {
	NoticeID uint64 `gorm:"primarykey"`
	UserID   uint64 `gorm:"primarykey;index"`
}

type NoticeRead struct {
	NoticeID uint64    `gorm:"primarykey"`
	UserID   uint64    `gorm:"primarykey;index"`
	ReadAt   time.Time `gorm:"not null"`
}
