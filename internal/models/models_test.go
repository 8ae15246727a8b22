package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayScan(t *testing.T) {
	cases := map[string]struct {
		in   interface{}
		want StringArray
	}{
		"nil":         {nil, StringArray{}},
		"json bytes":  {[]byte(`["a","b"]`), StringArray{"a", "b"}},
		"json string": {`[]`, StringArray{}},
		"null":        {"null", StringArray{}},
		"bare string": {"@artista", StringArray{"@artista"}},
		"quoted":      {`"@artista"`, StringArray{"@artista"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var got StringArray
			require.NoError(t, got.Scan(tc.in))
			assert.Equal(t, tc.want, got)
		})
	}

	var bad StringArray
	assert.Error(t, bad.Scan(42))
	assert.Error(t, bad.Scan(`["unterminated`))
}

func TestStringArrayValue(t *testing.T) {
	v, err := StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = StringArray{"x", "y"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["x","y"]`, v)
}

func TestFullCaption(t *testing.T) {
	p := InstagramPostModel{Caption: " Olá ", Hashtags: StringArray{"arte", "#cultura", " "}}
	assert.Equal(t, "Olá\n\n#arte #cultura", p.FullCaption())

	assert.Equal(t, "#arte", InstagramPostModel{Hashtags: StringArray{"arte"}}.FullCaption())
	assert.Equal(t, "só texto", InstagramPostModel{Caption: "só texto"}.FullCaption())
}
