package runquery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohaibafifi/schedkit/internal/solve"
)

func TestValidate(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		filter  Filter
		wantErr string
	}{
		{"nil filter", nil, ""},
		{"instance", Instance{Name: "line"}, ""},
		{"outcome", Outcome{Is: solve.Optimal}, ""},
		{"program", Program{Digest: "3f5a"}, ""},
		{"since", Since{At: at}, ""},
		{"until", Until{At: at}, ""},
		{"empty and", And{}, ""},
		{
			"conjunction",
			And{Filters: []Filter{
				Instance{Name: "line"},
				Outcome{Is: solve.Unsatisfiable},
				Since{At: at},
			}},
			"",
		},
		{
			"nested and",
			And{Filters: []Filter{
				And{Filters: []Filter{Instance{Name: "line"}}},
				Until{At: at},
			}},
			"",
		},
		{"empty instance name", Instance{}, "instance filter: name is empty"},
		{"out of range outcome", Outcome{Is: solve.Outcome(99)}, "unknown outcome 99"},
		{"empty program digest", Program{}, "program filter: digest is empty"},
		{"zero since", Since{}, "since filter: time is zero"},
		{"zero until", Until{}, "until filter: time is zero"},
		{
			"nil member",
			And{Filters: []Filter{Instance{Name: "line"}, nil}},
			"and filter: member 1 is nil",
		},
		{
			"invalid member",
			And{Filters: []Filter{Instance{Name: "line"}, Program{}}},
			"program filter: digest is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.filter)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateRejectsForeignFilter(t *testing.T) {
	// A pointer variant is outside the sealed value set backends
	// switch over, so validation refuses it up front.
	err := Validate(&Instance{Name: "line"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown filter type")
}
