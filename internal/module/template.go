package module

import (
	"fmt"
	"strings"
)

// MissingKeyError reports a placeholder with no value in the context.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing context key %q", e.Key)
}

// Substitute replaces {key} placeholders in text with values from ctx.
// "{{" and "}}" stand for literal braces. An unknown key or an unbalanced
// brace is an error.
func Substitute(text string, ctx Context) (string, error) {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexAny(text[i+1:], "{}")
			if end < 0 || text[i+1+end] != '}' {
				return "", fmt.Errorf("unclosed '{' at offset %d", i)
			}
			key := text[i+1 : i+1+end]
			v, ok := ctx[key]
			if !ok {
				return "", &MissingKeyError{Key: key}
			}
			fmt.Fprint(&b, v)
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("single '}' at offset %d", i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
