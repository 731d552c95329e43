// Package words serves the embedded category word lists the drawer
// choices are drawn from.
package words

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
)

//go:embed words.json
var rawWords []byte

// CategoryRandom mixes words from every category.
const CategoryRandom = "Aleatorio"

type Catalog struct {
	byCategory map[string][]string
	categories []string
}

func Load() (*Catalog, error) {
	byCategory := map[string][]string{}
	if err := json.Unmarshal(rawWords, &byCategory); err != nil {
		return nil, fmt.Errorf("words: decoding embedded lists: %w", err)
	}
	categories := make([]string, 0, len(byCategory)+1)
	categories = append(categories, CategoryRandom)
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories[1:])
	return &Catalog{byCategory: byCategory, categories: categories}, nil
}

func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Pool returns the full word list for a category, or the mixed list
// for CategoryRandom / unknown categories.
func (c *Catalog) Pool(category string) []string {
	if list, ok := c.byCategory[category]; ok {
		return append([]string(nil), list...)
	}
	var mixed []string
	for _, list := range c.byCategory {
		mixed = append(mixed, list...)
	}
	rand.Shuffle(len(mixed), func(i, j int) { mixed[i], mixed[j] = mixed[j], mixed[i] })
	return mixed
}
