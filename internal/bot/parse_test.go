package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1000000", 1_000_000, false},
		{"$1,234,567", 1_234_567, false},
		{"1 234 567", 1_234_567, false},
		{"2_500_000", 2_500_000, false},
		{" $42 ", 42, false},
		{"0", 0, false},
		{"750k", 750_000, false},
		{"750K", 750_000, false},
		{"1.5m", 1_500_000, false},
		{"2.25M", 2_250_000, false},
		{"$1.5m", 1_500_000, false},
		{"1b", 1_000_000_000, false},
		{"", 0, true},
		{"   ", 0, true},
		{"$", 0, true},
		{"m", 0, true},
		{"-5", 0, true},
		{"-1.5m", 0, true},
		{"12.5", 0, true}, // Дробные доллары принимаем только с суффиксом
		{"lots", 0, true},
		{"1.2.3m", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLooksLikeAmount(t *testing.T) {
	for _, s := range []string{"1000000", "$2,500,000", "1.5m", " 42 ", "$1b", "0"} {
		assert.True(t, looksLikeAmount(s), "%q should look like an amount", s)
	}
	for _, s := range []string{"", "   ", "hello", "/guess 5", "m1", "$", "-5"} {
		assert.False(t, looksLikeAmount(s), "%q should not look like an amount", s)
	}
}
