// Package events carries user interaction from the host tree to the core.
//
// The host backend reports (element, type, fields). The Bridge resolves the
// element's identifier, drops events nobody listens for, keeps only the
// fields allowed for the event's category and hands a JSON EventTrigger to
// a Target. CoreTarget writes it into the core's event buffer and calls the
// element_trigger_event export.
package events
