package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  map[string]string
	}{
		{
			name:  "tax form with year and refund",
			lines: []string{"Form 1040", "Tax Year 2023", "Refund: $2500"},
			want: map[string]string{
				"form_type": "1040",
				"tax_year":  "2023",
				"refund":    "2500",
			},
		},
		{
			name:  "amount with thousands separator and cents",
			lines: []string{"Total: $1,234.56"},
			want: map[string]string{
				"total": "1234.56",
			},
		},
		{
			name:  "form variant suffix",
			lines: []string{"form 1040-SR annual return"},
			want: map[string]string{
				"form_type": "1040-SR",
			},
		},
		{
			name:  "first occurrence wins",
			lines: []string{"Refund: $100", "Refund: $999"},
			want: map[string]string{
				"refund": "100",
			},
		},
		{
			name:  "nothing recognizable",
			lines: []string{"lorem ipsum", "dolor sit amet"},
			want:  nil,
		},
		{
			name:  "empty input",
			lines: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.lines))
		})
	}
}
