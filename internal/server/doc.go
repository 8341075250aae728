// Package server provides HTTP routing, middleware, and the JSON handlers for the recipe collection service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally. Routes are registered as method-qualified
// patterns ("GET /api/catalog/{id}"), so the mux answers unsupported methods with 405 and exposes wildcards
// through [http.Request.PathValue].
//
// # Collection Handler
//
// [CollectionHandler] serves the catalog and per-user collections:
//
//	GET    /api/catalog                          combined catalog (?user= adds that user's own recipes)
//	GET    /api/catalog/{id}                     upstream recipe detail
//	GET    /api/ingredients                      upstream ingredient names
//	GET    /api/recipes/{id}                     stored recipe
//	GET    /api/users/{user}/recipes             a user's collection
//	POST   /api/users/{user}/recipes             add by {"external_id"} or create an original
//	PATCH  /api/users/{user}/recipes/{id}        edit, forking a canonical recipe first
//	POST   /api/users/{user}/recipes/{id}/fork   private editable copy
//	DELETE /api/users/{user}/recipes/{id}        remove from the collection
//	GET    /api/stats                            row counters
//
// Errors are returned as {"error": message}. Not-found errors map to 404, ownership errors to 403, conflicts to
// 409 and invalid input to 400. Storage failures are logged and reported with a single generic message and 500.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
