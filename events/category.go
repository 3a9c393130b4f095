package events

import (
	"math"
	"reflect"
)

// Placeholder replaces field values that are host handles or otherwise not
// representable on the wire.
const Placeholder = "[host-object]"

// Category groups event types sharing a field allow-list.
type Category string

// Supported categories.
const (
	CategoryEvent    Category = "Event"
	CategoryMouse    Category = "MouseEvent"
	CategoryKeyboard Category = "KeyboardEvent"
	CategoryFocus    Category = "FocusEvent"
	CategoryInput    Category = "InputEvent"
	CategoryWheel    Category = "WheelEvent"
)

var baseFields = []string{
	"type", "bubbles", "cancelable", "composed", "defaultPrevented",
	"eventPhase", "isTrusted", "timeStamp", "target", "currentTarget",
}

var modifierFields = []string{"altKey", "ctrlKey", "shiftKey", "metaKey"}

var mouseFields = concat(baseFields, modifierFields, []string{
	"button", "buttons", "which", "detail",
	"clientX", "clientY", "movementX", "movementY",
	"offsetX", "offsetY", "pageX", "pageY", "screenX", "screenY",
	"relatedTarget",
})

var allowLists = map[Category]map[string]struct{}{
	CategoryEvent: set(baseFields),
	CategoryMouse: set(mouseFields),
	CategoryKeyboard: set(concat(baseFields, modifierFields, []string{
		"key", "code", "location", "repeat", "isComposing", "which", "keyCode", "charCode",
	})),
	CategoryFocus: set(concat(baseFields, []string{"detail", "relatedTarget"})),
	CategoryInput: set(concat(baseFields, []string{"data", "inputType", "isComposing", "detail"})),
	CategoryWheel: set(concat(mouseFields, []string{"deltaX", "deltaY", "deltaZ", "deltaMode"})),
}

var categoryByType = map[string]Category{
	"click":       CategoryMouse,
	"dblclick":    CategoryMouse,
	"auxclick":    CategoryMouse,
	"contextmenu": CategoryMouse,
	"mousedown":   CategoryMouse,
	"mouseup":     CategoryMouse,
	"mousemove":   CategoryMouse,
	"mouseover":   CategoryMouse,
	"mouseout":    CategoryMouse,
	"mouseenter":  CategoryMouse,
	"mouseleave":  CategoryMouse,
	"keydown":     CategoryKeyboard,
	"keyup":       CategoryKeyboard,
	"keypress":    CategoryKeyboard,
	"focus":       CategoryFocus,
	"blur":        CategoryFocus,
	"focusin":     CategoryFocus,
	"focusout":    CategoryFocus,
	"input":       CategoryInput,
	"beforeinput": CategoryInput,
	"wheel":       CategoryWheel,
}

// CategoryFor returns the category of an event type. Unlisted types fall
// back to CategoryEvent.
func CategoryFor(eventType string) Category {
	if c, ok := categoryByType[eventType]; ok {
		return c
	}
	return CategoryEvent
}

// Allowed reports whether a field may be serialized for c.
func Allowed(c Category, field string) bool {
	_, ok := allowLists[c][field]
	return ok
}

// Filter keeps the allowed fields of an event and substitutes Placeholder
// for values that are not plain scalars.
func Filter(c Category, fields map[string]any) map[string]any {
	out := make(map[string]any)
	for name, v := range fields {
		if !Allowed(c, name) {
			continue
		}
		out[name] = scalar(v)
	}
	return out
}

func scalar(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v
	case reflect.Float32, reflect.Float64:
		if f := rv.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return v
	default:
		return Placeholder
	}
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func set(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}
