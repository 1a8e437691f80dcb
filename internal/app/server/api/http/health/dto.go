package health

type Input struct{}

// Output ответ проверки; Status задает HTTP-код
type Output struct {
	Status int
	Body   Response
}

const (
	StatusOK       = "OK"
	StatusDegraded = "DEGRADED"

	DatabaseUp          = "up"
	DatabaseDown        = "down"
	DatabaseNotAttached = "not attached"
)

type Response struct {
	Status   string `json:"status" example:"OK" doc:"OK, если сервер может обслуживать синхронизацию"`
	Database string `json:"database" example:"up" doc:"Результат ping базы: up, down или not attached"`
	Error    string `json:"error,omitempty" doc:"Причина, если база недоступна"`
}
