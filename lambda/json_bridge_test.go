package lambda_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/lambda/lambda"
)

func TestFromJSONPreservesOrder(t *testing.T) {
	d := newDoc(t)
	it, err := lambda.FromJSON(d, []byte(`{"z": 1, "a": [true, null, 2.5], "big": 123456789012345678901234567890}`))
	require.NoError(t, err)

	m := lambda.Read(it).AsMap()
	var names []string
	for name := range m.Entries() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"z", "a", "big"}, names)
	assert.True(t, m.Get("z").IsInt())
	assert.True(t, m.Get("big").IsDecimal())
	assert.Equal(t, 2.5, m.Get("a").AsArray().At(2).AsFloat())
}

func TestFromJSONErrors(t *testing.T) {
	d := newDoc(t)
	for _, src := range []string{`{"a": }`, `[1, 2`, `1 2`} {
		_, err := lambda.FromJSON(d, []byte(src))
		assert.Error(t, err, src)
	}
}

func TestToJSON(t *testing.T) {
	d := newDoc(t)
	it := parse(t, d, `{name: "Ada", n: 12.50n, s: 'sym', el: <p class: "x"; "hi">}`)

	out, err := lambda.ToJSON(it)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"name":"Ada","n":12.50,"s":"sym","el":{"$tag":"p","class":"x","$children":["hi"]}}`,
		string(out))
}

func TestToJSONRejectsNaN(t *testing.T) {
	d := newDoc(t)
	_, err := lambda.ToJSON(d.Float(parseFloat(t, d, "nan")))
	assert.Error(t, err)
}

func parseFloat(t *testing.T, d *lambda.Document, src string) float64 {
	t.Helper()
	return parse(t, d, src).Float()
}
