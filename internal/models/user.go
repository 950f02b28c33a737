package models

import (
	"fmt"
	"strings"
	"time"
)

type UserRole string

const (
	RoleAdministrator UserRole = "Administrator"
	RoleDeveloper     UserRole = "Developer"
	RoleDesigner      UserRole = "Designer"
	RoleAnalyst       UserRole = "Analyst"
	RoleManager       UserRole = "Manager"
	RoleTester        UserRole = "Tester"
)

// ParseUserRole returns the role matching s, ignoring case.
func ParseUserRole(s string) (UserRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "administrator":
		return RoleAdministrator, nil
	case "developer":
		return RoleDeveloper, nil
	case "designer":
		return RoleDesigner, nil
	case "analyst":
		return RoleAnalyst, nil
	case "manager":
		return RoleManager, nil
	case "tester":
		return RoleTester, nil
	default:
		return "", fmt.Errorf("%w: role %q", ErrInvalidEnum, s)
	}
}

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdministrator, RoleDeveloper, RoleDesigner, RoleAnalyst, RoleManager, RoleTester:
		return true
	}
	return false
}

type User struct {
	ID           uint64     `gorm:"primarykey" json:"id" bson:"_id"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name" bson:"name"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title" bson:"title"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" bson:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-" bson:"password"`
	Role         UserRole   `gorm:"type:varchar(50);not null" json:"role" bson:"role"`
	IsAdmin      bool       `gorm:"not null" json:"isAdmin" bson:"isAdmin"`
	IsActive     bool       `gorm:"not null" json:"isActive" bson:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Initials returns up to two upper-case initials of the user's name.
func (u User) Initials() string {
	parts := strings.Fields(u.Name)
	var initials []rune
	for _, p := range parts {
		if len(initials) == 2 {
			break
		}
		initials = append(initials, []rune(strings.ToUpper(p))[0])
	}
	return string(initials)
}
