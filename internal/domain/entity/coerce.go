package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coord - координата на холсте. Промежуточные хранилища иногда сериализуют числа
// строками, поэтому при чтении принимается и число, и строка.
type Coord float64

func (c Coord) Float() float64 {
	return float64(c)
}

func (c *Coord) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*c = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("coordinate %q: %w", s, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("coordinate %q: %w", s, ErrNonFiniteCoord)
		}
		*c = Coord(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}
	*c = Coord(v)
	return nil
}

// OptionalInt - необязательное целое поле (например, периодичность инспекции в месяцах).
// Пустое значение, ноль и отсутствие поля превращаются в явный null, а не пропускаются:
// так "поле не передано" не путается с "поле очищено".
type OptionalInt struct {
	Value int
	Set   bool
}

// IntOf возвращает заданное значение; ноль считается "не задано"
func IntOf(v int) OptionalInt {
	if v == 0 {
		return OptionalInt{}
	}
	return OptionalInt{Value: v, Set: true}
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(o.Value)), nil
}

func (o *OptionalInt) UnmarshalJSON(b []byte) error {
	*o = OptionalInt{}

	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("optional int %q: %w", raw, err)
	}
	*o = IntOf(int(v))
	return nil
}
