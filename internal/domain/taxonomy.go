package domain

import "taxonomy/scraper/internal/normalize"

type FilterOption struct {
	Label    string  `json:"label"`
	Count    *int    `json:"count"`     // products reported by the site, nil when not shown
	SourceID *string `json:"source_id"` // id of the backing checkbox, when present
}

type FilterGroup struct {
	Name    string         `json:"group"`
	Options []FilterOption `json:"options"`
}

// Taxonomy holds the filter groups extracted for one category, in the order
// they were first seen.
type Taxonomy struct {
	Category Category

	groups []*FilterGroup
	index  map[string]int
}

func NewTaxonomy(category Category) *Taxonomy {
	return &Taxonomy{
		Category: category,
		index:    make(map[string]int),
	}
}

// Merge adds options to the group called name. A group seen for the first time
// keeps every option as given. For a group already collected, only options
// whose label is not present yet are appended.
func (t *Taxonomy) Merge(name string, options []FilterOption) {
	key := normalize.Text(name)

	i, ok := t.index[key]
	if !ok {
		group := &FilterGroup{Name: name, Options: make([]FilterOption, 0, len(options))}
		group.Options = append(group.Options, options...)
		t.index[key] = len(t.groups)
		t.groups = append(t.groups, group)
		return
	}

	group := t.groups[i]
	seen := make(map[string]struct{}, len(group.Options))
	for _, opt := range group.Options {
		seen[opt.Label] = struct{}{}
	}
	for _, opt := range options {
		if _, dup := seen[opt.Label]; dup {
			continue
		}
		group.Options = append(group.Options, opt)
	}
}

// Groups returns a copy of the collected groups.
func (t *Taxonomy) Groups() []FilterGroup {
	groups := make([]FilterGroup, 0, len(t.groups))
	for _, g := range t.groups {
		options := make([]FilterOption, len(g.Options))
		copy(options, g.Options)
		groups = append(groups, FilterGroup{Name: g.Name, Options: options})
	}
	return groups
}

func (t *Taxonomy) Group(name string) (FilterGroup, bool) {
	i, ok := t.index[normalize.Text(name)]
	if !ok {
		return FilterGroup{}, false
	}
	g := t.groups[i]
	return FilterGroup{Name: g.Name, Options: append([]FilterOption(nil), g.Options...)}, true
}

func (t *Taxonomy) Len() int {
	return len(t.groups)
}

func (t *Taxonomy) Empty() bool {
	return len(t.groups) == 0
}

// OptionCount is the number of raw options across all groups.
func (t *Taxonomy) OptionCount() int {
	total := 0
	for _, g := range t.groups {
		total += len(g.Options)
	}
	return total
}
