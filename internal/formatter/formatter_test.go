package formatter

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/desertthunder/mixr/internal/models"
	th "github.com/desertthunder/mixr/internal/testing"
)

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func sampleCollection() []*models.Recipe {
	mojito := models.NewRecipe("Mojito", "Muddle mint, add rum and top with soda.", models.RemoteThumbnail("https://img.example/mojito.jpg"))
	mojito.SetID("r-1")
	mojito.External = true
	mojito.ExternalID = "11000"
	mojito.Ingredients = []models.RecipeIngredient{
		{Position: 1, IngredientID: "i-1", IngredientName: "Light rum", Quantity: "2 oz"},
		{Position: 2, IngredientID: "i-2", IngredientName: "Mint", Quantity: "6 leaves"},
		{Position: 3, IngredientID: "i-3", IngredientName: "Soda water"},
	}

	sour := models.NewRecipe("House Sour", "Shake, strain.", models.UploadThumbnail("sour.png"))
	sour.SetID("r-2")
	sour.Ingredients = []models.RecipeIngredient{
		{Position: 1, IngredientID: "i-4", IngredientName: "Whiskey", Quantity: "2 oz"},
		{Position: 2, IngredientID: "i-5", IngredientName: "Lemon juice", Quantity: "1 oz"},
	}

	return []*models.Recipe{mojito, sour}
}

func TestExporters(t *testing.T) {
	t.Run("CatalogToCSV", func(t *testing.T) {
		items := []models.CatalogItem{
			{Name: "Amy's Sour", RecipeID: "rid-2", Source: models.SourceLocal},
			{ExternalID: "17005", Name: "Bellini", RecipeID: "rid-1", Source: models.SourceExternal},
			{ExternalID: "11452", Name: "Gimlet", Source: models.SourceExternal},
		}

		data, err := CatalogToCSV(items)
		if err != nil {
			t.Fatalf("CatalogToCSV failed: %v", err)
		}

		newGolden(t).Assert(t, "catalog_csv", data)
	})

	t.Run("CollectionToCSV", func(t *testing.T) {
		data, err := CollectionToCSV(sampleCollection())
		if err != nil {
			t.Fatalf("CollectionToCSV failed: %v", err)
		}

		newGolden(t).Assert(t, "collection_csv", data)
	})

	t.Run("CollectionToMarkdown", func(t *testing.T) {
		data, err := CollectionToMarkdown("amy's collection", sampleCollection(), "/uploads/")
		if err != nil {
			t.Fatalf("CollectionToMarkdown failed: %v", err)
		}

		newGolden(t).Assert(t, "collection_markdown", data)
	})

	t.Run("CollectionToMarkdown without thumbnails", func(t *testing.T) {
		r := models.NewRecipe("Plain", "", models.Thumbnail{})
		r.SetID("r-3")

		data, err := CollectionToMarkdown("empty", []*models.Recipe{r}, "")
		if err != nil {
			t.Fatalf("CollectionToMarkdown failed: %v", err)
		}

		output := string(data)
		if strings.Contains(output, "![") {
			t.Errorf("Markdown should not reference an image, got: %s", output)
		}
		if strings.Contains(output, "### Ingredients") || strings.Contains(output, "### Instructions") {
			t.Errorf("Markdown should omit empty sections, got: %s", output)
		}
	})

	t.Run("CollectionToJSON", func(t *testing.T) {
		data, err := CollectionToJSON(sampleCollection())
		if err != nil {
			t.Fatalf("CollectionToJSON failed: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded) != 2 {
			t.Fatalf("Expected 2 recipes, got %d", len(decoded))
		}
		if decoded[0]["id"] != "r-1" || decoded[0]["name"] != "Mojito" {
			t.Errorf("unexpected first recipe: %v", decoded[0])
		}
		if ingredients, ok := decoded[1]["ingredients"].([]any); !ok || len(ingredients) != 2 {
			t.Errorf("expected 2 ingredients on second recipe, got %v", decoded[1]["ingredients"])
		}
	})

	t.Run("CollectionToJSON empty", func(t *testing.T) {
		data, err := CollectionToJSON(nil)
		if err != nil {
			t.Fatalf("CollectionToJSON failed: %v", err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("Expected empty array, got %q", data)
		}
	})
}

func TestRecipeKind(t *testing.T) {
	canonical := models.NewRecipe("Mojito", "", models.Thumbnail{})
	canonical.SetID("c")
	canonical.External = true
	canonical.ExternalID = "11000"

	fork := canonical.Fork()
	original := models.NewRecipe("Mine", "", models.Thumbnail{})

	tests := []struct {
		recipe *models.Recipe
		want   string
	}{
		{canonical, "canonical"},
		{fork, "fork"},
		{original, "original"},
	}

	for _, tt := range tests {
		if got := RecipeKind(tt.recipe); got != tt.want {
			t.Errorf("RecipeKind(%s) = %q, want %q", tt.recipe.Name, got, tt.want)
		}
	}
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ExportFormat
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"CSV", FormatCSV, false},
		{"markdown", FormatMarkdown, false},
		{" md ", FormatMarkdown, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExportFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseExportFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseExportFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriters(t *testing.T) {
	recipes := sampleCollection()

	t.Run("WriteCollectionExport", func(t *testing.T) {
		for _, format := range []ExportFormat{FormatJSON, FormatCSV, FormatMarkdown} {
			t.Run(string(format), func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "export."+format.Extension())

				written, err := WriteCollectionExport(recipes, format, path)
				if err != nil {
					t.Fatalf("WriteCollectionExport failed: %v", err)
				}
				if written != path {
					t.Errorf("Expected %s, got %s", path, written)
				}

				th.AssertFileExists(t, written)
				if content := th.MustReadFile(t, written); !strings.Contains(content, "House Sour") {
					t.Errorf("export missing recipe name, got: %s", content)
				}
			})
		}
	})

	t.Run("WithDefaultPath", func(t *testing.T) {
		t.Chdir(t.TempDir())

		written, err := WriteCollectionExport(recipes, FormatMarkdown, "")
		if err != nil {
			t.Fatalf("WriteCollectionExport failed: %v", err)
		}
		if written != "collection.md" {
			t.Errorf("Expected 'collection.md', got '%s'", written)
		}
		th.AssertFileExists(t, written)
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		_, err := WriteCollectionExport(recipes, ExportFormat("xml"), filepath.Join(t.TempDir(), "out.xml"))
		if err == nil {
			t.Error("expected error for unsupported format")
		}
	})
}

func TestRenderTable(t *testing.T) {
	t.Run("Rows", func(t *testing.T) {
		out := RenderTable([]string{"Name", "Count"}, [][]string{{"Gin", "3"}, {"Absinthe"}}, 1)

		for _, want := range []string{"NAME", "COUNT", "Gin", "Absinthe", "╭", "╯"} {
			if !strings.Contains(out, want) {
				t.Errorf("table missing %q, got:\n%s", want, out)
			}
		}
		if lines := strings.Split(out, "\n"); len(lines) != 6 {
			t.Errorf("Expected 6 lines, got %d:\n%s", len(lines), out)
		}
	})

	t.Run("NoHeaders", func(t *testing.T) {
		if out := RenderTable(nil, [][]string{{"x"}}); out != "" {
			t.Errorf("Expected empty output, got %q", out)
		}
	})
}
