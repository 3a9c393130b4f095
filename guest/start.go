package guest

var (
	entry     func(*Document)
	entryOpts []Option
	active    *Document
)

// Start registers fn as the core's entry point. The host runs it through
// the main export once the module is loaded.
func Start(fn func(*Document), opts ...Option) {
	entry = fn
	entryOpts = opts
}

// Current returns the document created for the running entry point.
func Current() *Document {
	return active
}

// run creates the document over h and calls the registered entry point.
func run(h Host) {
	if entry == nil || h == nil {
		return
	}
	active = NewDocument(h, entryOpts...)
	entry(active)
}

// trigger hands an event payload to the active document.
func trigger(payload []byte) {
	if active == nil {
		return
	}
	if err := active.Dispatch(payload); err != nil {
		active.Logger().Error("event dispatch failed", "error", err)
	}
}
