package users

import "golang.org/x/crypto/bcrypt"

// Account groups. Group 0 is staff, group 1 is a regular buyer/seller.
const (
	GroupAdmin    = 0
	GroupCustomer = 1
)

// ValidGroup reports whether id is one of the known account groups.
func ValidGroup(id int) bool {
	return id == GroupAdmin || id == GroupCustomer
}

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // never serialize
	PhoneNumber  string `json:"phone_number,omitempty"`
	GroupID      int    `json:"group_id"`
	Verified     bool   `json:"verified"`
	Active       bool   `json:"active"`
}

func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
