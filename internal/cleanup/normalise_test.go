package cleanup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalise(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "curly apostrophes",
			input: "It’s a farmer‘s field.",
			want:  "It's a farmer's field.",
		},
		{
			name:  "curly double quotes",
			input: "“Series 1:25,000”",
			want:  `"Series 1:25,000"`,
		},
		{
			name:  "guillemets and primes",
			input: "«note» 52′30″",
			want:  `"note" 52'30"`,
		},
		{
			name:  "backtick and acute accent",
			input: "soil`s p´H",
			want:  "soil's p'H",
		},
		{
			name:  "mixed content untouched elsewhere",
			input: "pH — value", // em dash is not a quote glyph
			want:  "pH — value",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalise(tc.input))
		})
	}
}

func TestNormalise_ASCIIIdentity(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		`already has "ascii" quotes and it's fine`,
		"punctuation: ; , . ! ? ( )",
	}
	for _, s := range inputs {
		assert.Equal(t, s, Normalise(s))
	}
}
