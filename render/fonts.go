package render

import (
	"fmt"
	"sort"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
)

// DefaultFontFamily is the family assigned to newly created text objects.
const DefaultFontFamily = "Go"

type fontFamily struct {
	regular    *text.FontSource
	bold       *text.FontSource
	italic     *text.FontSource
	boldItalic *text.FontSource
}

// FontCatalog is the fixed font-family enumeration offered by the property
// panel. Families are embedded TTFs; no font files are read from disk.
type FontCatalog struct {
	families map[string]*fontFamily
}

// NewFontCatalog parses the bundled font set. It fails only if an embedded
// font cannot be parsed, which is an initialization error.
func NewFontCatalog() (*FontCatalog, error) {
	load := func(data []byte) (*text.FontSource, error) {
		return text.NewFontSource(data)
	}

	c := &FontCatalog{families: make(map[string]*fontFamily)}
	type variantSet struct {
		name                               string
		regular, bold, italic, boldItalic []byte
	}
	sets := []variantSet{
		{"Go", goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF},
		{"Go Mono", gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF},
		{"Go Smallcaps", gosmallcaps.TTF, nil, gosmallcapsitalic.TTF, nil},
	}
	for _, set := range sets {
		fam := &fontFamily{}
		var err error
		if fam.regular, err = load(set.regular); err != nil {
			return nil, fmt.Errorf("font family %q: %w", set.name, err)
		}
		if set.bold != nil {
			if fam.bold, err = load(set.bold); err != nil {
				return nil, fmt.Errorf("font family %q bold: %w", set.name, err)
			}
		}
		if set.italic != nil {
			if fam.italic, err = load(set.italic); err != nil {
				return nil, fmt.Errorf("font family %q italic: %w", set.name, err)
			}
		}
		if set.boldItalic != nil {
			if fam.boldItalic, err = load(set.boldItalic); err != nil {
				return nil, fmt.Errorf("font family %q bold italic: %w", set.name, err)
			}
		}
		c.families[set.name] = fam
	}
	return c, nil
}

// Families returns the family names, sorted.
func (c *FontCatalog) Families() []string {
	names := make([]string, 0, len(c.families))
	for name := range c.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether the family name is part of the catalog.
func (c *FontCatalog) Has(name string) bool {
	_, ok := c.families[name]
	return ok
}

// Face resolves a family plus bold/italic flags to a sized face. Unknown
// families fall back to the default family; missing variants fall back to
// the nearest available one.
func (c *FontCatalog) Face(family string, bold, italic bool, size float64) text.Face {
	fam, ok := c.families[family]
	if !ok {
		fam = c.families[DefaultFontFamily]
	}
	src := fam.regular
	switch {
	case bold && italic:
		if fam.boldItalic != nil {
			src = fam.boldItalic
		} else if fam.bold != nil {
			src = fam.bold
		} else if fam.italic != nil {
			src = fam.italic
		}
	case bold:
		if fam.bold != nil {
			src = fam.bold
		}
	case italic:
		if fam.italic != nil {
			src = fam.italic
		}
	}
	return src.Face(size)
}
