package categories

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// CategorySpec is the definition form of a single category.
type CategorySpec struct {
	Code             string         `json:"code" yaml:"-"`
	Title            string         `json:"title" yaml:"title"`
	Comment          string         `json:"comment,omitempty" yaml:"comment,omitempty"`
	AlternativeCodes []string       `json:"alternative_codes,omitempty" yaml:"alternative_codes,omitempty"`
	Info             map[string]any `json:"info,omitempty" yaml:"info,omitempty"`
	Children         [][]string     `json:"children,omitempty" yaml:"children,omitempty"`
}

// Spec is the definition form of a categorization: the shape produced by an
// external loader and consumed by FromSpec. Categories keep their declaration
// order, which is semantically meaningful.
type Spec struct {
	Name                      string `json:"name"`
	Title                     string `json:"title"`
	Comment                   string `json:"comment,omitempty"`
	References                string `json:"references,omitempty"`
	Institution               string `json:"institution,omitempty"`
	LastUpdate                string `json:"last_update,omitempty"` // ISO date, e.g. 2021-02-23
	Hierarchical              bool   `json:"hierarchical"`
	Version                   string `json:"version,omitempty"`
	TotalSum                  bool   `json:"total_sum,omitempty"`
	CanonicalTopLevelCategory string `json:"canonical_top_level_category,omitempty"`

	Categories []CategorySpec `json:"categories"`
}

var knownSpecKeys = map[string]bool{
	"name": true, "title": true, "comment": true, "references": true,
	"institution": true, "last_update": true, "hierarchical": true,
	"version": true, "total_sum": true, "canonical_top_level_category": true,
	"categories": true,
}

// specHeader mirrors the scalar fields of Spec for YAML (de)serialization.
// The categories mapping is handled manually to preserve key order.
type specHeader struct {
	Name                      string `yaml:"name"`
	Title                     string `yaml:"title"`
	Comment                   string `yaml:"comment,omitempty"`
	References                string `yaml:"references,omitempty"`
	Institution               string `yaml:"institution,omitempty"`
	LastUpdate                string `yaml:"last_update,omitempty"`
	Hierarchical              bool   `yaml:"hierarchical"`
	Version                   string `yaml:"version,omitempty"`
	TotalSum                  *bool  `yaml:"total_sum,omitempty"`
	CanonicalTopLevelCategory string `yaml:"canonical_top_level_category,omitempty"`
}

// UnmarshalYAML decodes a categorization definition, keeping the declaration
// order of the categories mapping.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !knownSpecKeys[key] {
			return fmt.Errorf("unexpected key not in schema %q", key)
		}
	}
	var hdr specHeader
	if err := node.Decode(&hdr); err != nil {
		return err
	}
	s.Name = hdr.Name
	s.Title = hdr.Title
	s.Comment = hdr.Comment
	s.References = hdr.References
	s.Institution = hdr.Institution
	s.LastUpdate = hdr.LastUpdate
	s.Hierarchical = hdr.Hierarchical
	s.Version = hdr.Version
	if hdr.TotalSum != nil {
		s.TotalSum = *hdr.TotalSum
	}
	s.CanonicalTopLevelCategory = hdr.CanonicalTopLevelCategory

	var catsNode *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "categories" {
			catsNode = node.Content[i+1]
			break
		}
	}
	if catsNode == nil {
		return fmt.Errorf("definition of %q misses the categories mapping", s.Name)
	}
	if catsNode.Kind != yaml.MappingNode {
		return fmt.Errorf("categories of %q must be a mapping of code to category", s.Name)
	}
	s.Categories = nil
	for i := 0; i+1 < len(catsNode.Content); i += 2 {
		var cs CategorySpec
		if err := catsNode.Content[i+1].Decode(&cs); err != nil {
			return fmt.Errorf("category %q: %w", catsNode.Content[i].Value, err)
		}
		cs.Code = catsNode.Content[i].Value
		s.Categories = append(s.Categories, cs)
	}
	return nil
}

// MarshalYAML encodes the definition with categories as an order-preserving
// mapping, so a written definition reads back identically.
func (s Spec) MarshalYAML() (any, error) {
	var root yaml.Node
	hdr := specHeader{
		Name:                      s.Name,
		Title:                     s.Title,
		Comment:                   s.Comment,
		References:                s.References,
		Institution:               s.Institution,
		LastUpdate:                s.LastUpdate,
		Hierarchical:              s.Hierarchical,
		Version:                   s.Version,
		CanonicalTopLevelCategory: s.CanonicalTopLevelCategory,
	}
	if s.Hierarchical {
		totalSum := s.TotalSum
		hdr.TotalSum = &totalSum
	}
	if err := root.Encode(hdr); err != nil {
		return nil, err
	}

	cats := &yaml.Node{Kind: yaml.MappingNode}
	for _, cs := range s.Categories {
		var value yaml.Node
		if err := value.Encode(cs); err != nil {
			return nil, fmt.Errorf("category %q: %w", cs.Code, err)
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: cs.Code, Style: yaml.DoubleQuotedStyle}
		valueCopy := value
		cats.Content = append(cats.Content, key, &valueCopy)
	}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "categories"}, cats)
	return &root, nil
}

// ReadSpec parses a YAML categorization definition.
func ReadSpec(r io.Reader) (*Spec, error) {
	var s Spec
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse categorization definition: %w", err)
	}
	return &s, nil
}

// FromYAML parses a YAML categorization definition and constructs the
// categorization from it.
func FromYAML(r io.Reader) (*Categorization, error) {
	spec, err := ReadSpec(r)
	if err != nil {
		return nil, err
	}
	return FromSpec(spec)
}

// ToYAML writes the categorization's definition form as YAML.
func (c *Categorization) ToYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.Spec()); err != nil {
		return fmt.Errorf("failed to serialize categorization %q: %w", c.name, err)
	}
	return enc.Close()
}
