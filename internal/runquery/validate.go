package runquery

import (
	"fmt"

	"github.com/sohaibafifi/schedkit/internal/solve"
)

// Validate checks a filter for structural problems before a backend
// compiles it: empty match values, zero times, nil members. A nil
// filter is valid.
func Validate(f Filter) error {
	if f == nil {
		return nil
	}

	switch ft := f.(type) {
	case Instance:
		if ft.Name == "" {
			return fmt.Errorf("instance filter: name is empty")
		}
	case Outcome:
		// Round-tripping through the spelling catches out-of-range
		// values, which stringify as "unknown".
		if _, ok := solve.ParseOutcome(ft.Is.String()); !ok {
			return fmt.Errorf("outcome filter: unknown outcome %d", int(ft.Is))
		}
	case Program:
		if ft.Digest == "" {
			return fmt.Errorf("program filter: digest is empty")
		}
	case Since:
		if ft.At.IsZero() {
			return fmt.Errorf("since filter: time is zero")
		}
	case Until:
		if ft.At.IsZero() {
			return fmt.Errorf("until filter: time is zero")
		}
	case And:
		for i, member := range ft.Filters {
			if member == nil {
				return fmt.Errorf("and filter: member %d is nil", i)
			}
			if err := Validate(member); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown filter type %T", f)
	}
	return nil
}
