package session

import "time"

// TokenRequest запрос токена синхронизации. Если учетные данные не переданы,
// токен выпускается по действующему токену из заголовка Authorization.
type TokenRequest struct {
	Email          string `json:"email,omitempty" doc:"User email"`
	Password       string `json:"password,omitempty" doc:"User password"`
	ExpiresInHours int    `json:"expiresInHours,omitempty" minimum:"0" maximum:"720" doc:"Token lifetime, default 24"`
}

// TokenResponse выпущенный токен синхронизации
type TokenResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	Error     string    `json:"error,omitempty"`
}
