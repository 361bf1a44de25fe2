package graph

import "errors"

// ErrEntityNotFound is the unrecoverable programmer error from spec.md
// §7: looking up an entity id that resolves in neither the local nor
// base layer. It is never a user-facing condition — callers that can
// legitimately encounter a missing id use HasEntity instead.
var ErrEntityNotFound = errors.New("entity not found")
