package editor

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// Stats summarizes a text for the editor's statistics display.
type Stats struct {
	Bytes      int // raw byte length
	Characters int // grapheme clusters, not runes
	Words      int
	Lines      int
}

// Count computes Stats for text. Characters are grapheme clusters and
// word boundaries follow Unicode segmentation; a segment counts as a
// word only if it carries a letter or digit.
func Count(text string) Stats {
	s := Stats{
		Bytes:      len(text),
		Characters: uniseg.GraphemeClusterCount(text),
	}
	if text != "" {
		s.Lines = strings.Count(text, "\n") + 1
	}

	state := -1
	rest := text
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		if strings.IndexFunc(word, isWordRune) >= 0 {
			s.Words++
		}
	}
	return s
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
