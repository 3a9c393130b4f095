package hostfuncs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundedBuffer_Write(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		writes    []string
		want      string
		truncated bool
	}{
		{"within limit", 16, []string{"hello"}, "hello", false},
		{"exactly at limit", 5, []string{"hello"}, "hello", false},
		{"cut mid write", 8, []string{"hello world"}, "hello wo", true},
		{"later write dropped", 5, []string{"hello", " world"}, "hello", true},
		{"empty write at limit", 5, []string{"hello", ""}, "hello", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBoundedBuffer(tt.limit)
			for _, w := range tt.writes {
				n, err := buf.Write([]byte(w))
				assert.NoError(t, err)
				assert.Equal(t, len(w), n, "full length is reported as written")
			}
			assert.Equal(t, tt.want, string(buf.Bytes()))
			assert.Equal(t, tt.truncated, buf.Truncated)
		})
	}
}
