// Package guest is the core-side half of the bridge: a document model the
// core builds its UI in, synced to the host as snapshots of the elements
// that changed.
//
// A core module registers its entry point with Start and is built as a
// WASI reactor:
//
//	func init() {
//	    guest.Start(func(d *guest.Document) {
//	        p := d.CreateElement("p")
//	        p.SetText("hello")
//	        _ = d.Append(p)
//	        _ = d.Sync()
//	    })
//	}
//
//	func main() {}
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o core.wasm
//
// Host calls go through the Host interface, so the document logic runs
// natively in tests.
package guest
