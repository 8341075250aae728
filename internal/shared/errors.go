package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Lookup errors
	ErrRecipeNotFound     = fmt.Errorf("recipe not found")
	ErrIngredientNotFound = fmt.Errorf("ingredient not found")
	ErrUserNotFound       = fmt.Errorf("user not found")

	// Collection errors
	ErrDuplicateRecipe = fmt.Errorf("canonical recipe already exists")
	ErrRecipeInUse     = fmt.Errorf("recipe is still linked to users")
	ErrNotOwner        = fmt.Errorf("recipe is not in the user's collection")
	ErrPersistence     = fmt.Errorf("failed to save changes")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
