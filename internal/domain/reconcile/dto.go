package reconcile

import "time"

// ServerStatus сводка изменений на сервере после момента since
type ServerStatus struct {
	Points     int       `json:"points" doc:"Anchor points modified after since"`
	Tests      int       `json:"tests" doc:"Anchor tests modified after since"`
	ServerTime time.Time `json:"serverTime"`
}
