// Package loader saves managed-object snapshots to YAML files and loads
// them back, for offline inspection with the debug commands.
package loader

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/stratctl/internal/objects"
)

const (
	// APIVersion identifies the dump format.
	APIVersion = "stratctl/v1"
	// Kind is the document kind of a snapshot dump.
	Kind = "Snapshot"
)

// Document is the on-disk form of a snapshot.
type Document struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Objects    []Object `yaml:"objects"`
}

// Object is one managed object in a Document.
type Object struct {
	Path       string             `yaml:"path"`
	Category   objects.Category   `yaml:"category"`
	Properties objects.Properties `yaml:"properties"`
}

// NewDocument converts a snapshot to a Document with objects sorted by
// path.
func NewDocument(snap *objects.Snapshot) Document {
	doc := Document{APIVersion: APIVersion, Kind: Kind}

	for handle, bags := range snap.Raw() {
		for category, props := range bags {
			doc.Objects = append(doc.Objects, Object{
				Path:       string(handle),
				Category:   category,
				Properties: normalize(props),
			})
		}
	}

	sort.Slice(doc.Objects, func(i, j int) bool { return doc.Objects[i].Path < doc.Objects[j].Path })
	return doc
}

// normalize converts handles to plain strings so they marshal cleanly.
func normalize(props objects.Properties) objects.Properties {
	out := make(objects.Properties, len(props))
	for k, v := range props {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case objects.Handle:
		return string(v)
	case []objects.Handle:
		out := make([]string, len(v))
		for i, h := range v {
			out[i] = string(h)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}

// Raw converts the document back to an unvalidated object graph.
func (d Document) Raw() (objects.Raw, error) {
	raw := make(objects.Raw, len(d.Objects))
	for i, obj := range d.Objects {
		if obj.Path == "" {
			return nil, fmt.Errorf("objects[%d].path is required", i)
		}
		switch obj.Category {
		case objects.CategoryPool, objects.CategoryFilesystem, objects.CategoryBlockdev:
		default:
			return nil, fmt.Errorf("objects[%d].category %q is not one of pool, filesystem, blockdev", i, obj.Category)
		}

		h := objects.Handle(obj.Path)
		if _, ok := raw[h]; ok {
			return nil, fmt.Errorf("objects[%d].path %q is duplicated", i, obj.Path)
		}

		props := obj.Properties
		if props == nil {
			props = objects.Properties{}
		}
		raw[h] = map[objects.Category]objects.Properties{obj.Category: props}
	}
	return raw, nil
}

// LoadFromFile loads a snapshot from a YAML file and validates it
// against schema.
func LoadFromFile(path string, schema objects.Schema) (*objects.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return LoadFromYAML(data, schema)
}

// LoadFromYAML loads a snapshot from YAML bytes and validates it
// against schema.
func LoadFromYAML(data []byte, schema objects.Schema) (*objects.Snapshot, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if doc.APIVersion == "" {
		return nil, fmt.Errorf("missing required field: apiVersion")
	}
	if doc.Kind == "" {
		return nil, fmt.Errorf("missing required field: kind")
	}
	if doc.APIVersion != APIVersion {
		return nil, fmt.Errorf("unsupported apiVersion: %s (expected: %s)", doc.APIVersion, APIVersion)
	}
	if doc.Kind != Kind {
		return nil, fmt.Errorf("unsupported kind: %s (expected: %s)", doc.Kind, Kind)
	}

	raw, err := doc.Raw()
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return objects.NewSnapshot(raw, schema)
}

// SaveToFile saves a snapshot to a YAML file.
func SaveToFile(snap *objects.Snapshot, path string) error {
	data, err := yaml.Marshal(NewDocument(snap))
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
