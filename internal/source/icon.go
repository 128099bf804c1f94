package source

import (
	"encoding/json"
	"fmt"
	"os"
)

// IconProvider looks up a talent icon by talent name.
type IconProvider interface {
	Icon(name string) (string, bool)
}

type IconProviderFunc func(name string) (string, bool)

func (f IconProviderFunc) Icon(name string) (string, bool) {
	return f(name)
}

// MapIconProvider serves icons from a name -> url map.
type MapIconProvider map[string]string

func (m MapIconProvider) Icon(name string) (string, bool) {
	url, ok := m[name]
	return url, ok && url != ""
}

// LoadIconFile reads an icons.json of the form {"<talent name>": "/path.png"}
// and prefixes every path with baseURL.
func LoadIconFile(path, baseURL string) (MapIconProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read icon file: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse icon file: %w", err)
	}

	icons := make(MapIconProvider, len(raw))
	for name, iconPath := range raw {
		if iconPath == "" {
			continue
		}
		icons[name] = baseURL + iconPath
	}
	return icons, nil
}

// IconChain asks each provider in order and falls back to a default icon.
type IconChain struct {
	providers []IconProvider
	fallback  string
}

func NewIconChain(fallback string, providers ...IconProvider) *IconChain {
	return &IconChain{providers: providers, fallback: fallback}
}

func (c *IconChain) Resolve(name string) string {
	if c == nil {
		return ""
	}
	for _, p := range c.providers {
		if p == nil {
			continue
		}
		if url, ok := p.Icon(name); ok {
			return url
		}
	}
	return c.fallback
}

func (c *IconChain) Default() string {
	if c == nil {
		return ""
	}
	return c.fallback
}
