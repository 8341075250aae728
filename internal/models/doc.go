// Package models defines domain entities and persistence interfaces for the mixr cocktail collection service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing recipe API data
//   - [CatalogEntry] : An (external id, name) pair produced by the catalog fetch
//   - [RecipeDetail] : A full upstream record with up to [MaxIngredientSlots] ingredient slots
//   - [CatalogItem] : A catalog entry annotated with local state for browsing
//
// 2. Persistent Entities: Database-backed models
//   - [User] : Collection owners
//   - [Recipe] : Canonical shared copies of external recipes, user forks and originals
//   - [Ingredient] : Shared, de-duplicated ingredient names
//   - [OwnershipLink] : Junction between users and the recipes in their collection
//
// Thumbnails are a tagged union ([Thumbnail]) resolved once when a recipe is stored,
// so rendering never has to guess whether a reference is a URL or an uploaded file.
package models
