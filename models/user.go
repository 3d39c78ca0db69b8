package models

// Role is the privilege level of an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User represents a registered account. Email is the login key.
// AdminSlot is set only on the admin row; its unique index admits a single
// admin while NULLs leave ordinary accounts unconstrained.
type User struct {
	ID           uint       `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Name         string     `json:"name" db:"name" gorm:"type:varchar(50);not null"`
	Email        string     `json:"email" db:"email" gorm:"type:varchar(100);not null;uniqueIndex:idx_users_email"`
	PasswordHash string     `json:"-" db:"password" gorm:"column:password;type:varchar(100);not null"`
	Role         Role       `json:"role" db:"role" gorm:"type:varchar(20);not null;default:user"`
	AdminSlot    *bool      `json:"-" db:"admin_slot" gorm:"uniqueIndex:idx_users_admin_slot"`
	Posts        []BlogPost `json:"posts,omitempty" gorm:"foreignKey:AuthorID;references:ID"`
	Comments     []Comment  `json:"comments,omitempty" gorm:"foreignKey:AuthorID;references:ID"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin returns true if the user holds the admin role. A nil user is never admin.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
