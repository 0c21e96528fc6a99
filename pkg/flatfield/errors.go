package flatfield

import "fmt"

// Error pairs the sink's numeric code with the message, so callers that
// prefer Go errors over the sink see the same taxonomy.
type Error struct {
	Code   int
	format string
	args   []interface{}
}

func (e *Error)Error() string {
	return fmt.Sprintf("flatfield (%d): %s", e.Code, fmt.Sprintf(e.format, e.args...))
}
