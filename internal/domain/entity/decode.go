package entity

import (
	"encoding/json"
	"fmt"
)

// New возвращает пустую сущность указанного типа
func New(kind Kind) (Entity, error) {
	switch kind {
	case KindCompany:
		return &Company{}, nil
	case KindUser:
		return &User{}, nil
	case KindProject:
		return &Project{}, nil
	case KindLocation:
		return &Location{}, nil
	case KindFloorPlan:
		return &FloorPlan{}, nil
	case KindAnchorPoint:
		return &AnchorPoint{}, nil
	case KindAnchorTest:
		return &AnchorTest{}, nil
	case KindFile:
		return &File{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Decode разбирает JSON в типизированную сущность. Поля, которых нет в модели
// (служебные отметки локального хранилища), отбрасываются.
func Decode(kind Kind, data []byte) (Entity, error) {
	e, err := New(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
	}
	return e, nil
}

// Filter условия выборки из хранилища. Пустые поля не ограничивают выборку.
type Filter struct {
	CompanyID       string
	ProjectID       string
	ParentID        string
	IncludeArchived bool
}

// Match проверяет, подходит ли область сущности под фильтр
func (f Filter) Match(s Scope) bool {
	if f.CompanyID != "" && s.CompanyID != f.CompanyID {
		return false
	}
	if f.ProjectID != "" && s.ProjectID != f.ProjectID {
		return false
	}
	if f.ParentID != "" && s.ParentID != f.ParentID {
		return false
	}
	return true
}

// IsArchived сообщает, скрыта ли сущность из выборок по умолчанию
func IsArchived(e Entity) bool {
	switch v := e.(type) {
	case *AnchorPoint:
		return v.Archived
	case *Project:
		return v.Deleted
	}
	return false
}
