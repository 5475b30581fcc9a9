package dateutils

import (
	"testing"
	"time"

	"fjacquet/merchant-resolver/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	march4 := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-03-04", march4},
		{"03/04/2025", march4},
		{"3/4/2025", march4},
		{"03/04/25", march4},
		{"3/4/25", march4},
		{"04.03.2025", march4},
		{"2025-03-04 18:30:00", march4},
		{"2025-03-04T23:30:00-05:00", march4},
		{"Mar 4, 2025", march4},
		{"March 4, 2025", march4},
		{"04 Mar 2025", march4},
		{"  2025-03-04  ", march4},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseDate_Errors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"", ErrEmptyDate},
		{"   ", ErrEmptyDate},
		{"yesterday", ErrNoLayout},
		{"13/45/2025", ErrNoLayout},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseDate(tt.input)
			var pe *parsererror.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "date", pe.Field)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParser_CustomLayouts(t *testing.T) {
	p := NewParser([]string{DateLayoutEuropean, "02/01/2006"})

	got, err := p.Parse("03/04/2025")
	require.NoError(t, err)
	assert.Equal(t, time.April, got.Month(), "day-first layouts read 03/04 as April 3rd")

	_, err = p.Parse("2025-04-03")
	assert.Error(t, err)
	assert.Equal(t, []string{DateLayoutEuropean, "02/01/2006"}, p.Layouts())
}

func TestNewParser_Defaults(t *testing.T) {
	assert.Equal(t, DefaultFormats, NewParser(nil).Layouts())
}

func TestToISODate(t *testing.T) {
	assert.Equal(t, "2025-08-12", ToISODate(time.Date(2025, 8, 12, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", ToISODate(time.Time{}))
}

func TestCleanDateString(t *testing.T) {
	assert.Equal(t, "Mar 4, 2025", CleanDateString("  Mar   4,\t2025 "))
}
