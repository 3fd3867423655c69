// Package bundle resolves a Lua module graph and emits a single-file bundle.
//
// Builder walks require references depth first from an entry module.
// Every canonical module id is parsed once and stored in an ordered Cache;
// a module is inserted after all of its dependencies, so Cache order is the
// emission order (dependencies first). A repeated id on the in-progress
// stack is a CycleError.
//
// Render rewrites each source module with Rewrite, replacing every require
// expression with require('<canonical id>'), and wraps it with Serialize into
// a define block. Asset modules become "return <matrix literal>". Assemble
// prepends the runtime prelude and appends the entry trigger.
package bundle
