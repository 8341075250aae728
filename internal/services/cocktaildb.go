package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/shared"
)

const (
	DefaultBaseURL        = "https://www.thecocktaildb.com/api/json/v1/1"
	DefaultTimeout        = 10 * time.Second
	DefaultConnectTimeout = 5 * time.Second
)

// CocktailDBOpts configures a [CocktailDB] client. Zero values fall back to the defaults.
type CocktailDBOpts struct {
	BaseURL        string
	HTTPClient     *http.Client
	Timeout        time.Duration
	ConnectTimeout time.Duration
	Logger         *log.Logger
}

// CocktailDB implements [RecipeSource] for TheCocktailDB's free v1 API.
type CocktailDB struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewCocktailDB creates a client. Without an HTTPClient, one is built by [NewHTTPClient].
func NewCocktailDB(opts CocktailDBOpts) *CocktailDB {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := opts.HTTPClient
	if client == nil {
		client = NewHTTPClient(opts.Timeout, opts.ConnectTimeout)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	return &CocktailDB{
		baseURL:    baseURL,
		httpClient: client,
		logger:     shared.WithLogger(logger, "service", "cocktaildb"),
	}
}

// NewHTTPClient returns a client whose dialer gives up after connectTimeout and whose requests
// give up after timeout.
func NewHTTPClient(timeout, connectTimeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if connectTimeout <= 0 || connectTimeout > timeout {
		connectTimeout = min(DefaultConnectTimeout, timeout)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = connectTimeout

	return &http.Client{Timeout: timeout, Transport: transport}
}

func (c *CocktailDB) Name() string {
	return "TheCocktailDB"
}

// LookupByID calls GET /lookup.php?i={id}.
func (c *CocktailDB) LookupByID(ctx context.Context, id string) (*models.RecipeDetail, bool) {
	drinks := c.fetch(ctx, "lookup.php", url.Values{"i": {id}}, "id", id)
	return firstDetail(drinks)
}

// Random calls GET /random.php.
func (c *CocktailDB) Random(ctx context.Context) (*models.RecipeDetail, bool) {
	drinks := c.fetch(ctx, "random.php", nil)
	return firstDetail(drinks)
}

// SearchByLetter calls GET /search.php?f={letter}.
func (c *CocktailDB) SearchByLetter(ctx context.Context, letter string) []models.CatalogEntry {
	drinks := c.fetch(ctx, "search.php", url.Values{"f": {letter}}, "letter", letter)
	return toEntries(drinks)
}

// SearchByName calls GET /search.php?s={name}.
func (c *CocktailDB) SearchByName(ctx context.Context, name string) []models.CatalogEntry {
	drinks := c.fetch(ctx, "search.php", url.Values{"s": {name}}, "name", name)
	return toEntries(drinks)
}

// ListIngredientNames calls GET /list.php?i=list and sorts the names ignoring case.
func (c *CocktailDB) ListIngredientNames(ctx context.Context) []string {
	drinks := c.fetch(ctx, "list.php", url.Values{"i": {"list"}})

	names := make([]string, 0, len(drinks))
	for _, d := range drinks {
		if name := d.field("strIngredient1"); name != "" {
			names = append(names, name)
		}
	}

	SortNamesFold(names)
	return names
}

// SortNamesFold sorts names case-insensitively. Names equal under case folding keep their order.
func SortNamesFold(names []string) {
	col := collate.New(language.English, collate.IgnoreCase)
	slices.SortStableFunc(names, func(a, b string) int {
		return col.CompareString(a, b)
	})
}

// fetch runs one request and returns its records. All failures are logged and yield nil.
func (c *CocktailDB) fetch(ctx context.Context, endpoint string, params url.Values, kv ...any) []drink {
	kv = append(kv, "endpoint", endpoint)

	drinks, err := c.doRequest(ctx, endpoint, params)
	if err != nil {
		c.logger.Warn("recipe API request failed", append(kv, "error", err)...)
		return nil
	}
	if len(drinks) == 0 {
		c.logger.Debug("recipe API returned no results", kv...)
	}
	return drinks
}

func (c *CocktailDB) doRequest(ctx context.Context, endpoint string, params url.Values) ([]drink, error) {
	apiURL := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload struct {
		Drinks json.RawMessage `json:"drinks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return decodeDrinks(payload.Drinks)
}

// drink is one loosely typed upstream record. Absent and null fields read as "".
type drink map[string]any

func (d drink) field(key string) string {
	switch v := d[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// decodeDrinks treats a missing, null or non-list "drinks" value (the API sends
// "no data found" for some misses) as no results.
func decodeDrinks(raw json.RawMessage) ([]drink, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || !strings.HasPrefix(trimmed, "[") {
		return nil, nil
	}

	var drinks []drink
	if err := json.Unmarshal(raw, &drinks); err != nil {
		return nil, fmt.Errorf("failed to decode drinks: %w", err)
	}
	return drinks, nil
}

func toEntries(drinks []drink) []models.CatalogEntry {
	entries := make([]models.CatalogEntry, 0, len(drinks))
	for _, d := range drinks {
		id, name := d.field("idDrink"), d.field("strDrink")
		if id == "" || name == "" {
			continue
		}
		entries = append(entries, models.CatalogEntry{ExternalID: id, Name: name})
	}
	return entries
}

func firstDetail(drinks []drink) (*models.RecipeDetail, bool) {
	for _, d := range drinks {
		if detail, ok := toDetail(d); ok {
			return detail, true
		}
	}
	return nil, false
}

func toDetail(d drink) (*models.RecipeDetail, bool) {
	detail := &models.RecipeDetail{
		ExternalID:   d.field("idDrink"),
		Name:         d.field("strDrink"),
		Category:     d.field("strCategory"),
		Alcoholic:    d.field("strAlcoholic"),
		Glass:        d.field("strGlass"),
		Instructions: d.field("strInstructions"),
		Thumbnail:    d.field("strDrinkThumb"),
	}
	if detail.ExternalID == "" || detail.Name == "" {
		return nil, false
	}

	for i := 1; i <= models.MaxIngredientSlots; i++ {
		name := d.field(fmt.Sprintf("strIngredient%d", i))
		if name == "" {
			continue
		}
		detail.Ingredients = append(detail.Ingredients, models.IngredientMeasure{
			Name:    name,
			Measure: d.field(fmt.Sprintf("strMeasure%d", i)),
		})
	}

	return detail, true
}
