// Package repositories implements SQLite persistence for all domain entities.
//
// Key Implementations:
//   - [UserRepository] : User account persistence with soft deletes and name-based lookups
//   - [Store] : Recipes, shared ingredients, ownership links and favorites, with the
//     transactional scope required by the collection layer ([CollectionStore])
//
// Every [Store] method runs on either the database handle or the active transaction, so a
// caller can compose several methods inside [Store.WithTx] and have them commit or roll back
// together. Nested WithTx calls join the outer transaction.
//
// Sequence numbers provide stable, human-readable ordering (e.g., user #42, recipe #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
//
// Constraint failures are translated into shared sentinels where the caller can act on them:
// inserting a second canonical recipe with the same name yields [shared.ErrDuplicateRecipe].
package repositories
