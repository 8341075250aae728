// Package tasks implements long-running catalog operations that report progress over a channel.
//
// The upstream recipe API cannot list its whole catalog, so [CatalogEngine] rebuilds it with one
// search per leading symbol (digits and letters). Searches run concurrently under a fixed cap and
// an optional rate limit, every search writes only to its own result slot, and a single barrier
// waits for all of them before the results are merged.
//
// # Partial Success
//
// A symbol whose search fails contributes nothing. The merged catalog may therefore be incomplete
// or empty, but building it never fails. The engine never cancels in-flight searches; each one is
// bounded by the source's own request timeout.
//
// # Ordering
//
// Entries are de-duplicated on the (external id, name) pair and sorted by name using a byte-wise
// comparison, ties broken by external id. The order of completion does not affect the output.
//
// # Progress
//
// Operations emit [ProgressUpdate] values through an optional channel. Sends never block: when the
// channel is full the update is dropped.
package tasks
