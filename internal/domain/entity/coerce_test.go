package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoord_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "number", input: `12.5`, want: 12.5},
		{name: "string", input: `"33.25"`, want: 33.25},
		{name: "empty string", input: `""`, want: 0},
		{name: "null", input: `null`, want: 0},
		{name: "garbage", input: `"abc"`, wantErr: true},
		{name: "nan string", input: `"NaN"`, wantErr: true},
		{name: "padded nan string", input: `" nan "`, wantErr: true},
		{name: "infinity string", input: `"Inf"`, wantErr: true},
		{name: "negative infinity string", input: `"-Infinity"`, wantErr: true},
		{name: "overflowing string", input: `"1e999"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Coord
			err := json.Unmarshal([]byte(tt.input), &c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Float())
		})
	}
}

func TestCoord_NonFiniteIsRejected(t *testing.T) {
	var p AnchorPoint

	err := json.Unmarshal([]byte(`{"projectId":"proj","numeroPonto":1,"posicaoX":"NaN","posicaoY":10}`), &p)

	assert.ErrorIs(t, err, ErrNonFiniteCoord)
}

func TestOptionalInt_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantSet bool
		want    int
		output  string
	}{
		{name: "number", input: `12`, wantSet: true, want: 12, output: `12`},
		{name: "numeric string", input: `"6"`, wantSet: true, want: 6, output: `6`},
		{name: "empty string", input: `""`, output: `null`},
		{name: "zero", input: `0`, output: `null`},
		{name: "null", input: `null`, output: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o OptionalInt
			require.NoError(t, json.Unmarshal([]byte(tt.input), &o))
			assert.Equal(t, tt.wantSet, o.Set)
			assert.Equal(t, tt.want, o.Value)

			out, err := json.Marshal(o)
			require.NoError(t, err)
			assert.JSONEq(t, tt.output, string(out))
		})
	}
}

func TestDecode_AnchorPointCoercesFields(t *testing.T) {
	raw := `{
		"id": "p1",
		"projectId": "proj",
		"numeroPonto": 5,
		"posicaoX": "10.5",
		"posicaoY": 20,
		"frequenciaInspecaoMeses": "",
		"status": "Não Testado",
		"syncStatus": "pending"
	}`

	e, err := Decode(KindAnchorPoint, []byte(raw))
	require.NoError(t, err)

	p, ok := e.(*AnchorPoint)
	require.True(t, ok)
	assert.Equal(t, 10.5, p.PosicaoX.Float())
	assert.Equal(t, 20.0, p.PosicaoY.Float())
	assert.False(t, p.FrequenciaInspecaoMeses.Set)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"frequenciaInspecaoMeses":null`)
	assert.NotContains(t, string(out), "syncStatus")
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := Decode(Kind("reports"), []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestAnchorTest_Validate(t *testing.T) {
	tests := []struct {
		name string
		test AnchorTest
		want error
	}{
		{name: "ok", test: AnchorTest{PontoID: "p1", Resultado: StatusApproved}},
		{name: "no point", test: AnchorTest{Resultado: StatusApproved}, want: ErrMissingPoint},
		{name: "bad result", test: AnchorTest{PontoID: "p1", Resultado: "Talvez"}, want: ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.test.Validate(), tt.want)
		})
	}
}

func TestFilter_Match(t *testing.T) {
	s := Scope{CompanyID: "c1", ProjectID: "p1", ParentID: "f1"}

	assert.True(t, Filter{}.Match(s))
	assert.True(t, Filter{ProjectID: "p1"}.Match(s))
	assert.False(t, Filter{ProjectID: "p2"}.Match(s))
	assert.False(t, Filter{CompanyID: "c2", ProjectID: "p1"}.Match(s))
}
