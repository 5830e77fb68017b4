package domain

// User is a registered customer. PasswordHash holds a bcrypt hash and is
// never serialized.
type User struct {
	ID           uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	FirstName    string `json:"fname" gorm:"column:first_name;size:255;not null"`
	LastName     string `json:"lname" gorm:"column:last_name;size:255;not null"`
	Username     string `json:"username" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string `json:"-" gorm:"column:pw;size:255;not null"`
	Permissions  int    `json:"user_permissions" gorm:"column:user_permissions;not null;default:0"`
}

func (u *User) TableName() string {
	return "user"
}

const PermissionCustomer = 0

// Registration is the input of a self-service sign-up. Password is the
// plaintext secret; it is hashed before anything is stored.
type Registration struct {
	FirstName string
	LastName  string
	Username  string
	Password  string
}
