package reconcile

import (
	"fmt"

	"anchorview/internal/domain/entity"
)

// Operation тип изменения в очереди синхронизации
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Valid проверяет, что операция известна
func (o Operation) Valid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Mutation - закрытое множество вариантов изменения. Каждый вариант несет
// типизированную полезную нагрузку и свою процедуру сверки.
type Mutation interface {
	Op() Operation
	Kind() entity.Kind
	ID() string
	mutation()
}

// PointMutation изменение анкерной точки (сверка по id или по (projectId, numeroPonto))
type PointMutation struct {
	Operation Operation
	Point     *entity.AnchorPoint
}

func (m PointMutation) Op() Operation     { return m.Operation }
func (m PointMutation) Kind() entity.Kind { return entity.KindAnchorPoint }
func (m PointMutation) ID() string        { return m.Point.ID }
func (PointMutation) mutation()           {}

// TestMutation изменение теста с обязательным переносом результата в статус точки
type TestMutation struct {
	Operation Operation
	Test      *entity.AnchorTest
}

func (m TestMutation) Op() Operation     { return m.Operation }
func (m TestMutation) Kind() entity.Kind { return entity.KindAnchorTest }
func (m TestMutation) ID() string        { return m.Test.ID }
func (TestMutation) mutation()           {}

// FileMutation загрузка фото. Файл неизменяем: повторная отправка того же id
// возвращает уже сохраненную копию.
type FileMutation struct {
	Operation Operation
	File      *entity.File
}

func (m FileMutation) Op() Operation     { return m.Operation }
func (m FileMutation) Kind() entity.Kind { return entity.KindFile }
func (m FileMutation) ID() string        { return m.File.ID }
func (FileMutation) mutation()           {}

// RecordMutation изменение вспомогательной сущности, простой upsert по id
type RecordMutation struct {
	Operation Operation
	Record    entity.Entity
}

func (m RecordMutation) Op() Operation     { return m.Operation }
func (m RecordMutation) Kind() entity.Kind { return m.Record.EntityKind() }
func (m RecordMutation) ID() string        { return m.Record.EntityID() }
func (RecordMutation) mutation()           {}

// NewMutation строит вариант изменения из сырых данных очереди.
// Служебные поля локального хранилища при разборе отбрасываются.
func NewMutation(op Operation, kind entity.Kind, data []byte) (Mutation, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}

	e, err := entity.Decode(kind, data)
	if err != nil {
		return nil, err
	}

	return Wrap(op, e), nil
}

// Wrap оборачивает уже разобранную сущность в подходящий вариант
func Wrap(op Operation, e entity.Entity) Mutation {
	switch v := e.(type) {
	case *entity.AnchorPoint:
		return PointMutation{Operation: op, Point: v}
	case *entity.AnchorTest:
		return TestMutation{Operation: op, Test: v}
	case *entity.File:
		return FileMutation{Operation: op, File: v}
	default:
		return RecordMutation{Operation: op, Record: e}
	}
}

// Describe возвращает метку изменения для сообщений об ошибках
func Describe(m Mutation) string {
	switch v := m.(type) {
	case PointMutation:
		return fmt.Sprintf("Ponto %d", v.Point.NumeroPonto)
	case TestMutation:
		return fmt.Sprintf("Teste %s", v.Test.ID)
	case FileMutation:
		return fmt.Sprintf("Foto %s", v.File.ID)
	default:
		return fmt.Sprintf("%s %s", m.Kind(), m.ID())
	}
}
