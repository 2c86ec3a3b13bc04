// Package ordering turns the song list of the active repertoire into the sequence that is rendered.
//
// The pipeline is:
//
//  1. [Store] holds the songs fetched from the backend, replaced wholesale on every reload
//  2. [Filter] keeps songs whose title contains the search query (case-insensitive)
//  3. [Comparator] resolves a [SortKey] to an ordering function with its missing-value policy
//  4. [ComputeRenderSequence] applies filter and a two-level stable sort, or replays the
//     snapshot while a [LockState] is held
//  5. [Reconciler] submits manual reorders and reloads the store afterwards
//
// [State] bundles sort, search and lock state and owns the transitions between them.
// Nothing in this package performs I/O except through the [Reorderer] and [Loader] interfaces.
package ordering
