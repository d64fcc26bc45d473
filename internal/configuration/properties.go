package configuration

import (
	"sort"
	"strings"
)

// GlobalProperties is an immutable set of build properties applied on top of
// a project's own property declarations. Property names are case-insensitive;
// values are compared exactly. The zero value is an empty, usable set.
type GlobalProperties struct {
	// entries is keyed by the folded (lowercased) property name.
	entries map[string]entry
}

type entry struct {
	// name preserves the caller's original casing for display.
	name  string
	value string
}

// NewGlobalProperties copies the given map into an immutable property set.
// Later duplicates that differ only by name casing overwrite earlier ones.
func NewGlobalProperties(props map[string]string) GlobalProperties {
	if len(props) == 0 {
		return GlobalProperties{}
	}
	entries := make(map[string]entry, len(props))
	for name, value := range props {
		entries[foldName(name)] = entry{name: name, value: value}
	}
	return GlobalProperties{entries: entries}
}

func foldName(name string) string {
	return strings.ToLower(name)
}

// Value returns the value for the named property, looked up case-insensitively.
// Missing properties return the empty string.
func (p GlobalProperties) Value(name string) string {
	e, _ := p.entries[foldName(name)]
	return e.value
}

// Has reports whether the named property is present, even with an empty value.
func (p GlobalProperties) Has(name string) bool {
	_, ok := p.entries[foldName(name)]
	return ok
}

// Len returns the number of properties in the set.
func (p GlobalProperties) Len() int {
	return len(p.entries)
}

// With returns a copy of the set with one property added or replaced.
func (p GlobalProperties) With(name, value string) GlobalProperties {
	entries := make(map[string]entry, len(p.entries)+1)
	for k, e := range p.entries {
		entries[k] = e
	}
	entries[foldName(name)] = entry{name: name, value: value}
	return GlobalProperties{entries: entries}
}

// Without returns a copy of the set with the named property removed.
// Removing an absent property returns an equal set.
func (p GlobalProperties) Without(name string) GlobalProperties {
	folded := foldName(name)
	if _, ok := p.entries[folded]; !ok {
		return p
	}
	entries := make(map[string]entry, len(p.entries)-1)
	for k, e := range p.entries {
		if k != folded {
			entries[k] = e
		}
	}
	return GlobalProperties{entries: entries}
}

// Merge returns a copy of the set with every property of other applied on
// top, replacing colliding names.
func (p GlobalProperties) Merge(other GlobalProperties) GlobalProperties {
	if other.Len() == 0 {
		return p
	}
	entries := make(map[string]entry, len(p.entries)+len(other.entries))
	for k, e := range p.entries {
		entries[k] = e
	}
	for k, e := range other.entries {
		entries[k] = e
	}
	return GlobalProperties{entries: entries}
}

// Equal reports whether both sets hold the same properties: names compared
// case-insensitively, values exactly.
func (p GlobalProperties) Equal(other GlobalProperties) bool {
	if len(p.entries) != len(other.entries) {
		return false
	}
	for k, e := range p.entries {
		o, ok := other.entries[k]
		if !ok || o.value != e.value {
			return false
		}
	}
	return true
}

// SortedNames returns the original-cased property names in folded-name order.
func (p GlobalProperties) SortedNames() []string {
	folded := make([]string, 0, len(p.entries))
	for k := range p.entries {
		folded = append(folded, k)
	}
	sort.Strings(folded)
	names := make([]string, len(folded))
	for i, k := range folded {
		names[i] = p.entries[k].name
	}
	return names
}

// ToMap returns a fresh mutable map of the properties under their original names.
func (p GlobalProperties) ToMap() map[string]string {
	m := make(map[string]string, len(p.entries))
	for _, e := range p.entries {
		m[e.name] = e.value
	}
	return m
}

// String renders the set as "name=value;..." in deterministic order, for logs.
func (p GlobalProperties) String() string {
	var sb strings.Builder
	for i, name := range p.SortedNames() {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(p.Value(name))
	}
	return sb.String()
}
