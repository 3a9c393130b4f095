// Package wazero exposes the bridge operations to a core module running in
// the wazero runtime.
//
// RegisterWithRuntime instantiates a host module (named "env" by default)
// whose functions read their request from the core's linear memory,
// dispatch it through a hostfuncs.HandlerRegistry and write the answer into
// the core's general buffer:
//
//	console_log(offset, length)
//	uuid_v4() -> length
//	sync_elements(offset, length) -> status
//	get_element_by_id(offset, length) -> length
//	upload_bytes(offset, length) -> length
//	add_event_listener(offset, length) -> status
//
// # Basic Usage
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(&hostfuncs.Bridge{Tree: rec, IDs: ids}),
//	)
//	if err != nil {
//	    return err
//	}
//
//	runtime := wazero.NewRuntime(ctx)
//	err = uuwazero.RegisterWithRuntime(ctx, runtime, registry)
package wazero
