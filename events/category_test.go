package events

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type hostHandle struct{ name string }

func TestCategoryFor(t *testing.T) {
	tests := map[string]Category{
		"click":      CategoryMouse,
		"mousemove":  CategoryMouse,
		"keydown":    CategoryKeyboard,
		"blur":       CategoryFocus,
		"input":      CategoryInput,
		"wheel":      CategoryWheel,
		"submit":     CategoryEvent,
		"custom-evt": CategoryEvent,
	}
	for eventType, want := range tests {
		assert.Equal(t, want, CategoryFor(eventType), eventType)
	}
}

func TestFilter_AllowList(t *testing.T) {
	fields := map[string]any{
		"altKey":     true,
		"clientX":    10,
		"clientY":    20.5,
		"key":        "Enter",
		"deltaY":     3,
		"secretPath": "/etc/passwd",
		"timeStamp":  1234.5,
	}

	mouse := Filter(CategoryMouse, fields)
	assert.Equal(t, map[string]any{
		"altKey":    true,
		"clientX":   10,
		"clientY":   20.5,
		"timeStamp": 1234.5,
	}, mouse)

	keyboard := Filter(CategoryKeyboard, fields)
	assert.Equal(t, map[string]any{
		"altKey":    true,
		"key":       "Enter",
		"timeStamp": 1234.5,
	}, keyboard)

	wheel := Filter(CategoryWheel, fields)
	assert.Contains(t, wheel, "deltaY")
	assert.Contains(t, wheel, "clientX")
	assert.NotContains(t, wheel, "secretPath")
}

func TestFilter_HostHandlesBecomePlaceholder(t *testing.T) {
	got := Filter(CategoryMouse, map[string]any{
		"target":        &hostHandle{name: "button"},
		"relatedTarget": nil,
		"currentTarget": map[string]any{"nested": true},
		"button":        int8(0),
		"screenX":       math.NaN(),
	})

	assert.Equal(t, map[string]any{
		"target":        Placeholder,
		"relatedTarget": nil,
		"currentTarget": Placeholder,
		"button":        int8(0),
		"screenX":       nil,
	}, got)
}

func TestFilter_EmptyInput(t *testing.T) {
	assert.Empty(t, Filter(CategoryEvent, nil))
}
