// package formatter exports catalogs and recipe collections to various formats (JSON, CSV, Markdown)
// and renders CLI tables
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/desertthunder/mixr/internal/models"
)

// ExportFormat names an output format for [WriteCollectionExport].
type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatCSV      ExportFormat = "csv"
	FormatMarkdown ExportFormat = "markdown"
)

// Extension returns the file extension used for the format, without the dot.
func (f ExportFormat) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// ParseExportFormat accepts json, csv, markdown and md (case-insensitive).
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use json, csv or markdown)", s)
	}
}

// RecipeKind labels a recipe as canonical, fork or original.
func RecipeKind(r *models.Recipe) string {
	switch {
	case r.IsCanonical():
		return "canonical"
	case r.ExternalID != "" || r.IsFork():
		return "fork"
	default:
		return "original"
	}
}

// CatalogToCSV converts catalog items to CSV with columns: Name, Source, External ID, Recipe ID
func CatalogToCSV(items []models.CatalogItem) ([]byte, error) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Name, string(item.Source), item.ExternalID, item.RecipeID})
	}
	return writeCSV([]string{"Name", "Source", "External ID", "Recipe ID"}, rows)
}

// CollectionToCSV converts recipes to CSV, one row per recipe. Ingredients are joined with "; ".
func CollectionToCSV(recipes []*models.Recipe) ([]byte, error) {
	rows := make([][]string, 0, len(recipes))
	for _, r := range recipes {
		rows = append(rows, []string{
			r.ID(),
			r.Name,
			RecipeKind(r),
			r.ExternalID,
			strings.Join(ingredientLines(r), "; "),
			r.Instructions,
		})
	}
	return writeCSV([]string{"ID", "Name", "Kind", "External ID", "Ingredients", "Instructions"}, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ingredientLines renders "quantity name" per ingredient row.
func ingredientLines(r *models.Recipe) []string {
	lines := make([]string, 0, len(r.Ingredients))
	for _, ri := range r.Ingredients {
		if ri.Quantity == "" {
			lines = append(lines, ri.IngredientName)
			continue
		}
		lines = append(lines, ri.Quantity+" "+ri.IngredientName)
	}
	return lines
}

// CollectionToMarkdown renders a user's collection as a Markdown document. Uploaded thumbnails
// are linked under uploadPrefix.
func CollectionToMarkdown(title string, recipes []*models.Recipe, uploadPrefix string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Recipes**: %d\n", len(recipes))

	for _, r := range recipes {
		fmt.Fprintf(&buf, "\n## %s\n\n", r.Name)

		if url := r.Thumbnail.URL(uploadPrefix); url != "" {
			fmt.Fprintf(&buf, "![%s](%s)\n\n", r.Name, url)
		}

		fmt.Fprintf(&buf, "**Kind**: %s\n", RecipeKind(r))
		if r.ExternalID != "" {
			fmt.Fprintf(&buf, "**External ID**: %s\n", r.ExternalID)
		}

		if lines := ingredientLines(r); len(lines) > 0 {
			buf.WriteString("\n### Ingredients\n\n")
			for _, line := range lines {
				fmt.Fprintf(&buf, "- %s\n", line)
			}
		}

		if instructions := strings.TrimSpace(r.Instructions); instructions != "" {
			fmt.Fprintf(&buf, "\n### Instructions\n\n%s\n", instructions)
		}
	}

	return buf.Bytes(), nil
}

// CollectionToJSON renders recipes as an indented JSON array.
func CollectionToJSON(recipes []*models.Recipe) ([]byte, error) {
	if recipes == nil {
		recipes = []*models.Recipe{}
	}
	data, err := json.MarshalIndent(recipes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recipes: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteCollectionExport writes recipes to path in the given format and returns the path written.
//
// Defaults to collection.{ext} in the working directory.
func WriteCollectionExport(recipes []*models.Recipe, format ExportFormat, path string) (string, error) {
	if path == "" {
		path = "collection." + format.Extension()
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = CollectionToJSON(recipes)
	case FormatCSV:
		data, err = CollectionToCSV(recipes)
	case FormatMarkdown:
		data, err = CollectionToMarkdown("Collection", recipes, "")
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// RenderTable renders rows under headers as a rounded box table. Short rows are padded; columns
// listed in rightAligned (0-based) are right-aligned.
func RenderTable(headers []string, rows [][]string, rightAligned ...int) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		for _, col := range rightAligned {
			if col == i {
				align = text.AlignRight
			}
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
