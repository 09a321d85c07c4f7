package registry

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

var allowedResourceKeys = map[string]bool{
	"table":     true,
	"columns":   true,
	"filters":   true,
	"search":    true,
	"relations": true,
	"sort":      true,
	"per_page":  true,
	"writable":  true,
	"nested":    true,
}

var allowedColumnKeys = map[string]bool{
	"name": true,
	"type": true,
}

var allowedRelationKeys = map[string]bool{
	"resource": true,
	"type":     true,
	"fk":       true,
	"pk":       true,
}

var allowedColumnTypes = map[string]bool{
	"uuid":    true,
	"string":  true,
	"text":    true,
	"int":     true,
	"decimal": true,
	"bool":    true,
	"time":    true,
}

// validateYAMLNode rejects unknown keys before decoding, so a typo in a catalog file
// fails loudly instead of being ignored.
func validateYAMLNode(node *yaml.Node, context string) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := validateYAMLNode(child, "resource"); err != nil {
				return err
			}
		}

	case yaml.MappingNode:
		var allowedKeys map[string]bool
		switch context {
		case "resource":
			allowedKeys = allowedResourceKeys
		case "column":
			allowedKeys = allowedColumnKeys
		case "relation":
			allowedKeys = allowedRelationKeys
		}

		for i := 0; i < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			key := keyNode.Value

			if allowedKeys != nil && !allowedKeys[key] {
				return fmt.Errorf("unknown key '%s' in %s (line %d)", key, context, keyNode.Line)
			}
			if context == "column" && key == "type" && !allowedColumnTypes[valNode.Value] {
				return fmt.Errorf("unknown column type '%s' (line %d)", valNode.Value, valNode.Line)
			}

			next := context
			switch {
			case context == "resource" && key == "columns":
				next = "columns-seq"
			case context == "resource" && key == "relations":
				next = "relations-map"
			case context == "relations-map":
				next = "relation"
			case context == "resource":
				next = "value"
			}
			if err := validateYAMLNode(valNode, next); err != nil {
				return err
			}
		}

	case yaml.SequenceNode:
		itemContext := context
		if context == "columns-seq" {
			itemContext = "column"
		}
		for _, item := range node.Content {
			if err := validateYAMLNode(item, itemContext); err != nil {
				return err
			}
		}
	}

	return nil
}
