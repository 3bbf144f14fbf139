// Package releaser orchestrates one release assembly run.
//
// It validates every precondition upfront (most importantly the signing
// credential), claims the output directory with a run marker, then drives the
// pipeline: collect artifacts, plan the layout, stage the tree, produce
// archives and the source snapshot, write checksums, sign, and persist the
// release manifest. The run is single-threaded; the first fatal error aborts it.
package releaser
