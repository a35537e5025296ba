/*
Package thumbcache keeps the thumbnail cache of a wallpapers directory in sync
and publishes the in-memory handles the UI displays.

# Pipeline

A refresh runs these steps, in order:

 1. Read the configuration document.
 2. Decide whether to regenerate: the document's newWallpapers flag, or a
    forced refresh.
 3. Regenerate (when required): list the videos, generate one artifact per
    video sequentially with a pause between items, canonicalize the resulting
    map and persist it as the document's thumbnailsHashMap.
 4. Materialize: load every cached artifact and publish a fresh HandleMap.

Materialization runs on every refresh, whether or not regeneration ran.

# Single flight

At most one refresh runs at a time. A caller arriving while a run is in
progress does not start new work; it waits for the running one and receives
the same Result. Waiting can be abandoned through the caller's context, but
the run itself is never cancelled. A run that panics is reported as
ErrRunPanicked and the coordinator still returns to idle.

# Cache semantics

The regenerated map replaces the previous one. Videos that failed or
disappeared are dropped rather than carried over. Keys are ordered by the
configured collation locale, so the persisted document is deterministic.

If listing fails the previous map is left as is. If persisting fails the
in-memory snapshot stays on the previously persisted map, so what is
displayed never diverges from what is on disk.

# Progress

Progress exposes (total, completed) for observers. Both are reset when
regeneration starts, completed advances once per attempted video whether or
not it succeeded, and total returns to zero when the loop ends.
*/
package thumbcache
