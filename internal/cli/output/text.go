package output

import (
	"fmt"
	"io"
	"strings"
)

// TextFormatter prints strings verbatim, Stringers via String and
// string slices one per line.
type TextFormatter struct{}

// Format writes data followed by a newline.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	var s string
	switch v := data.(type) {
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	case []string:
		s = strings.Join(v, "\n")
	default:
		s = fmt.Sprintf("%+v", v)
	}
	if s == "" {
		return nil
	}
	_, err := io.WriteString(w, strings.TrimSuffix(s, "\n")+"\n")
	return err
}
