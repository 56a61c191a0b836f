package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samples = []string{
	"",
	"   ",
	"Lácteos y Quesos",
	"  Bebidas   sin\tAlcohol ",
	"Almacén / Desayuno",
	"Niños & Bebés",
	"__Ya_normalizado__",
	"Ñandú",
	"Frases",
	"Marcas",
	"Press",
	"Tipo de Productos",
	"foo s",
	"foo s s",
	"İstanbul",
	"ℌola",
	"Café (12)",
	"s",
	"ss",
	"日本語 テスト",
}

func TestText(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "strips accents", in: "Lácteos", want: "lacteos"},
		{name: "collapses whitespace", in: "  Bebidas   sin\tAlcohol ", want: "bebidas sin alcohol"},
		{name: "enye", in: "Ñandú", want: "nandu"},
		{name: "keeps punctuation", in: "Almacén / Desayuno", want: "almacen / desayuno"},
		{name: "empty", in: "", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Text(tc.in))
		})
	}
}

func TestKey(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "spaces become underscores", in: "Lácteos y Quesos", want: "lacteos_y_quesos"},
		{name: "symbol runs collapse", in: "Almacén / Desayuno", want: "almacen_desayuno"},
		{name: "trims underscores", in: "__Ya_normalizado__", want: "ya_normalizado"},
		{name: "ampersand", in: "Niños & Bebés", want: "ninos_bebes"},
		{name: "only symbols", in: " -/- ", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Key(tc.in))
		})
	}
}

func TestKeyAny(t *testing.T) {
	assert.Equal(t, "lacteos", KeyAny("Lácteos"))
	assert.Equal(t, 42, KeyAny(42))
	assert.Nil(t, KeyAny(nil))
}

func TestGroupKey(t *testing.T) {
	assert.Equal(t, GroupKey("Marca"), GroupKey("Marcas"))
	assert.Equal(t, "marca", GroupKey("Marcas"))
	// Heuristic, not linguistics: only the trailing "s" goes.
	assert.Equal(t, "frase", GroupKey("Frases"))
	assert.Equal(t, "tipo de producto", GroupKey("Tipo de Productos"))
	assert.Equal(t, "press", GroupKey("Press"))
	assert.Equal(t, "foo s", GroupKey("foo s"))
	assert.Equal(t, "s", GroupKey("s"))
}

func TestOptionLabel(t *testing.T) {
	assert.Equal(t, "la serenisima", OptionLabel("  La Serenísima "))
}

func TestIdempotent(t *testing.T) {
	funcs := map[string]func(string) string{
		"Text":        Text,
		"Key":         Key,
		"GroupKey":    GroupKey,
		"OptionLabel": OptionLabel,
	}

	for name, f := range funcs {
		t.Run(name, func(t *testing.T) {
			for _, s := range samples {
				once := f(s)
				assert.Equal(t, once, f(once), "input %q", s)
			}
		})
	}
}
