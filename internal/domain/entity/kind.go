package entity

// Kind - тип сущности, он же имя таблицы в локальном и удаленном хранилище
type Kind string

const (
	KindCompany     Kind = "companies"
	KindUser        Kind = "users"
	KindProject     Kind = "projects"
	KindLocation    Kind = "locations"
	KindFloorPlan   Kind = "floor_plans"
	KindAnchorPoint Kind = "anchor_points"
	KindAnchorTest  Kind = "anchor_tests"
	KindFile        Kind = "files"
)

// Kinds перечисляет все типы в порядке зависимостей: родитель раньше потомка
var Kinds = []Kind{
	KindCompany,
	KindUser,
	KindProject,
	KindLocation,
	KindFloorPlan,
	KindAnchorPoint,
	KindAnchorTest,
	KindFile,
}

// Valid проверяет, что тип известен
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}
