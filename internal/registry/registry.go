// Package registry loads the resource catalog: one YAML file per REST collection,
// naming its table, columns, filterable and searchable columns, relations and
// writable columns.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"StockDesk/internal/logger"
)

var ErrUnknownResource = errors.New("unknown resource")

const DefaultPerPage = 10

var validate = validator.New(validator.WithRequiredStructEnabled())

type Catalog struct {
	resources map[string]*Resource
}

// Load reads every *.yml in dir. The resource name is the file name.
func Load(dir string) (*Catalog, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, err
	}

	c := &Catalog{resources: make(map[string]*Resource, len(files))}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		res, err := parse(name, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		c.resources[name] = res
	}
	if err := c.link(); err != nil {
		return nil, fmt.Errorf("link error: %w", err)
	}
	logger.Info("catalog_loaded", map[string]any{"dir": dir, "resources": len(c.resources)})
	return c, nil
}

func parse(name string, data []byte) (*Resource, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty YAML")
	}
	if err := validateYAMLNode(root.Content[0], "resource"); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	var res Resource
	if err := root.Decode(&res); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}
	res.Name = name
	if res.Table == "" {
		res.Table = name
	}
	if err := validate.Struct(&res); err != nil {
		return nil, fmt.Errorf("validation error: %w", definitionError(err))
	}
	if res.PerPage == 0 {
		res.PerPage = DefaultPerPage
	}
	return &res, nil
}

// definitionError turns validator output into "Columns[1].Type: oneof uuid string ..." lines.
func definitionError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Resource.")
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += " " + fe.Param()
		}
		msgs = append(msgs, field+": "+msg)
	}
	return errors.New(strings.Join(msgs, "; "))
}

// link resolves relation targets, fills key defaults and checks that every column
// a resource refers to exists.
func (c *Catalog) link() error {
	for name, res := range c.resources {
		if _, ok := res.Column("id"); !ok {
			return fmt.Errorf("%s: missing id column", name)
		}
		for _, group := range []struct {
			label string
			cols  []string
		}{
			{"filter", res.Filters},
			{"search", res.Search},
			{"writable", res.Writable},
		} {
			for _, col := range group.cols {
				if _, ok := res.Column(col); !ok {
					return fmt.Errorf("%s: %s column '%s' not declared", name, group.label, col)
				}
			}
		}
		if res.Sort != "" {
			if _, ok := res.Column(strings.TrimPrefix(res.Sort, "-")); !ok {
				return fmt.Errorf("%s: sort column '%s' not declared", name, res.Sort)
			}
		}

		for relName, rel := range res.Relations {
			target, ok := c.resources[rel.Resource]
			if !ok {
				return fmt.Errorf("invalid relation: resource '%s' not found in '%s.%s'", rel.Resource, name, relName)
			}
			rel.target = target
			if rel.PK == "" {
				rel.PK = "id"
			}
			switch rel.Type {
			case "belongs_to":
				if rel.FK == "" {
					rel.FK = relName + "_id"
				}
				if _, ok := res.Column(rel.FK); !ok {
					return fmt.Errorf("%s.%s: fk '%s' not a column of %s", name, relName, rel.FK, name)
				}
			case "has_many":
				if rel.FK == "" {
					rel.FK = singular(name) + "_id"
				}
				if _, ok := target.Column(rel.FK); !ok {
					return fmt.Errorf("%s.%s: fk '%s' not a column of %s", name, relName, rel.FK, rel.Resource)
				}
			default:
				return fmt.Errorf("relation '%s.%s' must have valid type (has_many, belongs_to), got '%s'", name, relName, rel.Type)
			}
		}
		for _, n := range res.Nested {
			rel, ok := res.Relations[n]
			if !ok || rel.Type != "has_many" {
				return fmt.Errorf("%s: nested '%s' must be a has_many relation", name, n)
			}
		}
	}
	return nil
}

func (c *Catalog) Get(name string) (*Resource, error) {
	res, ok := c.resources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, name)
	}
	return res, nil
}

// Relations lists the relation names of a resource, sorted.
func (c *Catalog) Relations(name string) ([]string, error) {
	res, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(res.Relations))
	for k := range res.Relations {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.resources))
	for k := range c.resources {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return strings.TrimSuffix(s, "ies") + "y"
	case strings.HasSuffix(s, "s"):
		return strings.TrimSuffix(s, "s")
	}
	return s
}
