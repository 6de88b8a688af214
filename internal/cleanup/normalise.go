// Package cleanup normalises problematic punctuation glyphs in
// configured database columns to their ASCII equivalents. It is a
// standalone maintenance utility, independent of the export pipeline.
package cleanup

import "strings"

// quoteRunes maps curly quotes, primes, guillemets, and related glyphs
// to plain ASCII ' and ".
var quoteRunes = map[rune]rune{
	'‘': '\'',
	'’': '\'',
	'‚': '\'',
	'‛': '\'',
	'′': '\'',
	'‵': '\'',
	'`': '\'',
	'´': '\'',
	'ʻ': '\'',
	'ʼ': '\'',
	'❛': '\'',
	'❜': '\'',
	'❟': '\'',
	'❠': '\'',
	'¿': '\'',
	'“': '"',
	'”': '"',
	'„': '"',
	'‟': '"',
	'″': '"',
	'‶': '"',
	'«': '"',
	'»': '"',
	'˝': '"',
	'❝': '"',
	'❞': '"',
	'〝': '"',
	'〞': '"',
	'〟': '"',
}

// Normalise replaces smart quotes and related glyphs with their ASCII
// equivalents. Pure-ASCII input comes back unchanged.
func Normalise(s string) string {
	return strings.Map(func(r rune) rune {
		if ascii, ok := quoteRunes[r]; ok {
			return ascii
		}
		return r
	}, s)
}
