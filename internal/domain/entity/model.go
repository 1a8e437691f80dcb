package entity

import (
	"time"
)

// PointStatus - статус анкерной точки, повторяет результат последнего теста
type PointStatus string

const (
	StatusNotTested   PointStatus = "Não Testado"
	StatusApproved    PointStatus = "Aprovado"
	StatusDisapproved PointStatus = "Reprovado"
)

// Valid проверяет, что статус входит в перечисление
func (s PointStatus) Valid() bool {
	switch s {
	case StatusNotTested, StatusApproved, StatusDisapproved:
		return true
	}
	return false
}

// Scope - принадлежность сущности: компания, проект и непосредственный родитель
type Scope struct {
	CompanyID string
	ProjectID string
	ParentID  string
}

// Entity общий интерфейс хранимых сущностей
type Entity interface {
	EntityKind() Kind
	EntityID() string
	SetEntityID(id string)
	Scope() Scope
}

// AnchorPoint анкерная точка на плане этажа
type AnchorPoint struct {
	ID                      string      `json:"id"`
	ProjectID               string      `json:"projectId"`
	FloorPlanID             string      `json:"floorPlanId,omitempty"`
	NumeroPonto             int         `json:"numeroPonto"`
	Localizacao             string      `json:"localizacao"`
	TipoEquipamento         string      `json:"tipoEquipamento,omitempty"`
	NumeroLacre             string      `json:"numeroLacre,omitempty"`
	FrequenciaInspecaoMeses OptionalInt `json:"frequenciaInspecaoMeses"`
	PosicaoX                Coord       `json:"posicaoX"`
	PosicaoY                Coord       `json:"posicaoY"`
	Status                  PointStatus `json:"status"`
	Archived                bool        `json:"archived"`
	ArchivedAt              *time.Time  `json:"archivedAt,omitempty"`
	CreatedByUserID         string      `json:"createdByUserId,omitempty"`
	LastModifiedByUserID    string      `json:"lastModifiedByUserId,omitempty"`
	DataHora                time.Time   `json:"dataHora"`
}

func (p *AnchorPoint) EntityKind() Kind      { return KindAnchorPoint }
func (p *AnchorPoint) EntityID() string      { return p.ID }
func (p *AnchorPoint) SetEntityID(id string) { p.ID = id }
func (p *AnchorPoint) Scope() Scope {
	return Scope{ProjectID: p.ProjectID, ParentID: p.FloorPlanID}
}

// Validate проверяет обязательные поля точки
func (p *AnchorPoint) Validate() error {
	if p.ProjectID == "" {
		return ErrMissingProject
	}
	if p.Status != "" && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Archive помечает точку как архивную (мягкое удаление)
func (p *AnchorPoint) Archive(at time.Time) {
	p.Archived = true
	t := at
	p.ArchivedAt = &t
}

// Unarchive возвращает точку из архива
func (p *AnchorPoint) Unarchive() {
	p.Archived = false
	p.ArchivedAt = nil
}

// AnchorTest тест нагрузки точки
type AnchorTest struct {
	ID              string      `json:"id"`
	PontoID         string      `json:"pontoId"`
	Resultado       PointStatus `json:"resultado"`
	Carga           string      `json:"carga,omitempty"`
	Tempo           string      `json:"tempo,omitempty"`
	Tecnico         string      `json:"tecnico,omitempty"`
	Observacoes     string      `json:"observacoes,omitempty"`
	FotoTeste       string      `json:"fotoTeste,omitempty"`
	FotoPronto      string      `json:"fotoPronto,omitempty"`
	DataFotoPronto  string      `json:"dataFotoPronto,omitempty"`
	CreatedByUserID string      `json:"createdByUserId,omitempty"`
	DataHora        time.Time   `json:"dataHora"`
}

func (t *AnchorTest) EntityKind() Kind      { return KindAnchorTest }
func (t *AnchorTest) EntityID() string      { return t.ID }
func (t *AnchorTest) SetEntityID(id string) { t.ID = id }
func (t *AnchorTest) Scope() Scope {
	return Scope{ParentID: t.PontoID}
}

// Validate проверяет обязательные поля теста
func (t *AnchorTest) Validate() error {
	if t.PontoID == "" {
		return ErrMissingPoint
	}
	if !t.Resultado.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Company компания-арендатор
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Company) EntityKind() Kind      { return KindCompany }
func (c *Company) EntityID() string      { return c.ID }
func (c *Company) SetEntityID(id string) { c.ID = id }
func (c *Company) Scope() Scope          { return Scope{CompanyID: c.ID} }

// User пользователь компании
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	CompanyID string    `json:"companyId"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) EntityKind() Kind      { return KindUser }
func (u *User) EntityID() string      { return u.ID }
func (u *User) SetEntityID(id string) { u.ID = id }
func (u *User) Scope() Scope          { return Scope{CompanyID: u.CompanyID} }

// Project проект инспекции
type Project struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	ObraAddress         string    `json:"obraAddress,omitempty"`
	ObraCEP             string    `json:"obraCEP,omitempty"`
	ContratanteName     string    `json:"contratanteName,omitempty"`
	Deleted             bool      `json:"deleted"`
	CompanyID           string    `json:"companyId"`
	CreatedByUserID     string    `json:"createdByUserId,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
	FloorPlanImages     []string  `json:"floorPlanImages,omitempty"`
	DispositivoDeAncora string    `json:"dispositivoDeAncoragemPadrao,omitempty"`
}

func (p *Project) EntityKind() Kind      { return KindProject }
func (p *Project) EntityID() string      { return p.ID }
func (p *Project) SetEntityID(id string) { p.ID = id }
func (p *Project) Scope() Scope          { return Scope{CompanyID: p.CompanyID} }

// Location локация (фасад, кровля и т.п.) внутри компании
type Location struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MarkerShape string `json:"markerShape,omitempty"`
	CompanyID   string `json:"companyId"`
	ProjectID   string `json:"projectId,omitempty"`
}

func (l *Location) EntityKind() Kind      { return KindLocation }
func (l *Location) EntityID() string      { return l.ID }
func (l *Location) SetEntityID(id string) { l.ID = id }
func (l *Location) Scope() Scope {
	return Scope{CompanyID: l.CompanyID, ProjectID: l.ProjectID}
}

// FloorPlan план этажа проекта
type FloorPlan struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Order     int       `json:"order"`
	Active    bool      `json:"active"`
	ProjectID string    `json:"projectId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f *FloorPlan) EntityKind() Kind      { return KindFloorPlan }
func (f *FloorPlan) EntityID() string      { return f.ID }
func (f *FloorPlan) SetEntityID(id string) { f.ID = id }
func (f *FloorPlan) Scope() Scope          { return Scope{ProjectID: f.ProjectID} }
