package user

import "time"

// User учетная запись, которой разрешено получать токен синхронизации
type User struct {
	ID           string
	Email        string
	Name         string
	CompanyID    string
	Role         string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}
