package session

import "anchorview/internal/domain/session"

type tokenInput struct {
	Authorization string `header:"Authorization" doc:"Действующий токен, если учетные данные не переданы"`
	Body          session.TokenRequest
}

type tokenOutput struct {
	Body session.TokenResponse
}
