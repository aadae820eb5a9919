package templates

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"printstudio/core"
)

// Catalog holds the product templates the storefront offers. It is
// loaded once at startup and read-only afterwards.
type Catalog struct {
	byID  map[string]core.ProductTemplate
	order []string
}

// Defaults returns the built-in product line.
func Defaults() []core.ProductTemplate {
	return []core.ProductTemplate{
		{
			ID:           "tshirt-classic",
			Name:         "Classic T-Shirt",
			CanvasWidth:  900,
			CanvasHeight: 1080,
			PrintArea:    core.Rect{X: 250, Y: 220, Width: 400, Height: 530},
			MockupColorOptions: []string{
				"#ffffff", "#1d1d1f", "#b91c1c", "#1e3a8a", "#14532d",
			},
		},
		{
			ID:           "mug-11oz",
			Name:         "11oz Mug",
			CanvasWidth:  1000,
			CanvasHeight: 700,
			PrintArea:    core.Rect{X: 180, Y: 150, Width: 640, Height: 400},
			MockupColorOptions: []string{
				"#ffffff", "#1d1d1f", "#fbbf24",
			},
		},
		{
			ID:           "tote-bag",
			Name:         "Tote Bag",
			CanvasWidth:  850,
			CanvasHeight: 950,
			PrintArea:    core.Rect{X: 215, Y: 280, Width: 420, Height: 480},
			MockupColorOptions: []string{
				"#f5f0e1", "#1d1d1f",
			},
		},
		{
			ID:           "phone-case",
			Name:         "Phone Case",
			CanvasWidth:  500,
			CanvasHeight: 980,
			PrintArea:    core.Rect{X: 60, Y: 80, Width: 380, Height: 820},
			MockupColorOptions: []string{
				"#ffffff", "#1d1d1f", "#4f6df5",
			},
		},
	}
}

// NewCatalog builds a catalog from the given templates, rejecting
// invalid or duplicate entries.
func NewCatalog(templates []core.ProductTemplate) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]core.ProductTemplate, len(templates))}
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("template %s: %w", t.ID, err)
		}
		if _, exists := c.byID[t.ID]; exists {
			return nil, fmt.Errorf("duplicate template id %s", t.ID)
		}
		c.byID[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	return c, nil
}

// LoadCatalog reads templates from a JSON file, or returns the
// built-in catalog when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(Defaults())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template catalog: %w", err)
	}
	var templates []core.ProductTemplate
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse template catalog: %w", err)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("template catalog %s is empty", path)
	}
	logrus.WithFields(logrus.Fields{
		"path":  path,
		"count": len(templates),
	}).Info("Loaded template catalog")
	return NewCatalog(templates)
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (core.ProductTemplate, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// All returns the templates in catalog order.
func (c *Catalog) All() []core.ProductTemplate {
	out := make([]core.ProductTemplate, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// IDs returns the sorted template ids.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func HandleList(catalog *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, catalog.All())
	}
}

func HandleGet(catalog *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		t, ok := catalog.Get(id)
		if !ok {
			http.Error(w, "Template not found", http.StatusNotFound)
			return
		}
		render.JSON(w, r, t)
	}
}
