// Package form holds the state engine behind a nested form.
//
// A Form owns a registry of field states addressed by dotted paths. Fields
// join the tree through a Scope (the form itself, or a Section wrapping it)
// and receive a Handle they use to read their state, push changes and ask
// whether they need to re-render. Every committed change produces a Snapshot
// delivered to the configured change callback; registrations arriving in a
// burst are coalesced into a single commit through a debounce timer.
//
// The registry is the only writer of field state. Mutations are serialised
// with a mutex and callbacks run outside of it, in commit order, so callbacks
// may call back into the form.
package form
