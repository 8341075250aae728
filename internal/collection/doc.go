// Package collection merges the external recipe catalog with locally stored recipes and keeps
// users' collections consistent with the shared canonical copies.
//
// # Canonical Recipes and Forks
//
// The first time any user adds an external recipe it is materialized as a canonical row:
// the recipe, its shared ingredients and its quantity rows are written in one transaction.
// Later additions reuse that row and only add an ownership link. There is at most one
// canonical row per name.
//
// Canonical rows are never edited. When a user edits one, [Manager.ForkForEditing] copies it
// into a private recipe, moves the user's link from the canonical row to the copy and
// returns the copy. Other users keep seeing the canonical instructions.
//
// # Failure Semantics
//
// Every multi-row operation runs in a single transaction. Storage failures roll the
// whole operation back and surface as [shared.ErrPersistence]; business outcomes such as
// [shared.ErrRecipeNotFound] or [shared.ErrNotOwner] are returned unwrapped. A canonical insert
// that loses a race with a concurrent insert of the same name is retried once, which then
// finds and reuses the winner's row.
package collection
