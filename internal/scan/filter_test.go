package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccepts(t *testing.T) {
	years := []string{"2020"}

	tests := []struct {
		name   string
		dir    string
		months []string
		want   bool
	}{
		{"month with default months", "01", nil, true},
		{"december with default months", "12", nil, true},
		{"not a month", "13", nil, false},
		{"month outside explicit selection", "03", []string{"01", "02"}, false},
		{"month inside explicit selection", "02", []string{"01", "02"}, true},
		{"configured year", "2020", nil, true},
		{"unconfigured year", "2021", nil, false},
		{"facility one letter three digits", "X092", nil, true},
		{"facility letter then digits", "A123", nil, true},
		{"facility two letters two digits", "AB12", nil, true},
		{"facility lowercase", "kg14", nil, true},
		{"one letter then non-digit", "A123X", nil, false},
		{"two letters three digits", "ABC12", nil, false},
		{"letter with two digits only", "A12", nil, false},
		{"empty name", "", nil, false},
		{"plain word", "archive", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Accepts(tt.dir, years, tt.months))
		})
	}
}
