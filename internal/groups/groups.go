// Package groups provides the clinician peer group directory.
package groups

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/huangsam/cohort/internal/contract"
)

// Group is one named peer group within an initiative.
type Group struct {
	Name       string   `yaml:"name"`
	Initiative string   `yaml:"initiative"`
	Members    []string `yaml:"members"`
}

// File is the on-disk layout of a group directory.
type File struct {
	Groups []Group `yaml:"groups"`
}

// Directory is an immutable group directory scoped to one initiative.
// An empty initiative uses every group.
type Directory struct {
	initiative string
	groups     []Group
	byName     map[string]map[string]bool
}

var _ contract.GroupDirectory = &Directory{} // Compile-time check

// New builds a Directory over the given groups.
func New(groups []Group, initiative string) *Directory {
	d := &Directory{initiative: initiative, byName: make(map[string]map[string]bool)}
	for _, g := range groups {
		if initiative != "" && g.Initiative != initiative {
			continue
		}
		d.groups = append(d.groups, g)
		members, ok := d.byName[g.Name]
		if !ok {
			members = make(map[string]bool, len(g.Members))
			d.byName[g.Name] = members
		}
		for _, m := range g.Members {
			members[m] = true
		}
	}
	return d
}

// Parse decodes a YAML group directory.
func Parse(data []byte, initiative string) (*Directory, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("cannot parse group directory: %w", err)
	}
	for i, g := range f.Groups {
		if g.Name == "" {
			return nil, fmt.Errorf("group %d has no name", i)
		}
	}
	return New(f.Groups, initiative), nil
}

// Load reads a YAML group directory from disk.
func Load(path, initiative string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read group directory: %w", err)
	}
	return Parse(data, initiative)
}

// FindGroup implements the GroupDirectory interface.
func (d *Directory) FindGroup(id string) (string, error) {
	if id == "" {
		return "", nil
	}
	var found []string
	for _, g := range d.groups {
		if slices.Contains(g.Members, id) && !slices.Contains(found, g.Name) {
			found = append(found, g.Name)
		}
	}
	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: %s is in %v", contract.ErrAmbiguousGroupMembership, id, found)
	}
}

// InGroup implements the GroupDirectory interface.
func (d *Directory) InGroup(id, groupName string) bool {
	if id == "" || groupName == "" {
		return false
	}
	return d.byName[groupName][id]
}

// Members implements the GroupDirectory interface.
func (d *Directory) Members(groupName string) []string {
	var out []string
	for _, g := range d.groups {
		if g.Name != groupName {
			continue
		}
		for _, m := range g.Members {
			if !slices.Contains(out, m) {
				out = append(out, m)
			}
		}
	}
	return out
}

// Groups returns the names of the groups in scope, in file order.
func (d *Directory) Groups() []string {
	var names []string
	for _, g := range d.groups {
		if !slices.Contains(names, g.Name) {
			names = append(names, g.Name)
		}
	}
	return names
}
