// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/shared"
)

// MockSource is an in-memory recipe source. It is safe for concurrent use.
type MockSource struct {
	mu          sync.Mutex
	Details     map[string]models.RecipeDetail
	Letters     map[string][]models.CatalogEntry
	Ingredients []string
	calls       map[string]int
}

func NewMockSource() *MockSource {
	return &MockSource{
		Details: map[string]models.RecipeDetail{},
		Letters: map[string][]models.CatalogEntry{},
		calls:   map[string]int{},
	}
}

// AddDetail registers a recipe for lookup and for search under its lowercased first letter.
func (m *MockSource) AddDetail(d models.RecipeDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Details[d.ExternalID] = d
	if d.Name != "" {
		letter := strings.ToLower(string([]rune(d.Name)[:1]))
		m.Letters[letter] = append(m.Letters[letter], models.CatalogEntry{ExternalID: d.ExternalID, Name: d.Name})
	}
}

// Calls reports how many times the named method ran.
func (m *MockSource) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockSource) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
}

func (m *MockSource) LookupByID(_ context.Context, id string) (*models.RecipeDetail, bool) {
	m.record("LookupByID")
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.Details[id]
	if !ok {
		return nil, false
	}
	return &d, true
}

func (m *MockSource) SearchByLetter(_ context.Context, letter string) []models.CatalogEntry {
	m.record("SearchByLetter")
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.Letters[letter])
}

func (m *MockSource) ListIngredientNames(context.Context) []string {
	m.record("ListIngredientNames")
	return slices.Clone(m.Ingredients)
}

func (m *MockSource) Random(ctx context.Context) (*models.RecipeDetail, bool) {
	m.record("Random")
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.Details {
		return &d, true
	}
	return nil, false
}

func (m *MockSource) SearchByName(_ context.Context, name string) []models.CatalogEntry {
	m.record("SearchByName")
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CatalogEntry
	for _, d := range m.Details {
		if d.Name == name {
			out = append(out, models.CatalogEntry{ExternalID: d.ExternalID, Name: d.Name})
		}
	}
	return out
}

func (m *MockSource) Name() string { return "mock" }

// MustOpenDB opens a migrated in-memory database that is closed when the test ends.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(shared.MemoryDatabase)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
