// Package services defines the [RecipeSource] interface for external recipe APIs and implements it for TheCocktailDB.
//
// # Recipe Source
//
// The upstream API has no "list everything" endpoint. It offers lookup by id, search by leading
// letter, search by name, a random pick and the list of ingredient names. [CocktailDB] wraps each
// as a single GET and converts the loosely typed response into [models.RecipeDetail] or
// [models.CatalogEntry] values.
//
// # Failure Policy
//
// Callers never see transport errors. Every [CocktailDB] method logs the failure and returns an
// empty result instead:
//   - transport errors and timeouts are logged at warn level
//   - non-2xx responses and undecodable bodies are logged at warn level
//   - a missing, null or non-list "drinks" field means no results and is logged at debug level
//
// The default HTTP client bounds the connect phase ([shared.APIConfig.ConnectTimeout]) more tightly
// than the whole request ([shared.APIConfig.Timeout]), so one slow call cannot stall a caller
// for longer than its own timeout.
//
// # Raw Requests
//
// [APIService] performs unprocessed GET requests against the same API for debugging from the CLI.
package services
