package model

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Username     string   `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password     string   `gorm:"size:100;not null" json:"-"`
	Role         UserRole `gorm:"size:20;default:'student'" json:"role"`
	PhoneNumber  string   `gorm:"size:15" json:"phoneNumber,omitempty"`
	Organization string   `gorm:"size:255" json:"organization,omitempty"`
}

func (User) TableName() string {
	return "users"
}
