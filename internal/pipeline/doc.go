// Package pipeline provides a framework for executing check steps in
// sequence.
//
// A site check runs through multiple stages: document discovery, concurrent
// per-document scanning, use/definition reconciliation, and history
// persistence. Each stage is implemented as a Step that receives the
// accumulated report and can modify it.
//
// The pipeline executes steps for one site root; BatchProcessor runs whole
// pipelines concurrently when several roots are checked in one invocation.
// Within a single pipeline, the scan step fans documents out over an
// errgroup. The document is the unit of parallel work, and workers share
// only the thread-safe string interner.
package pipeline
