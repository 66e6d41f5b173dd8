package openapi

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// JSON encodes the document as indented JSON. Components and properties
// keep their order; plain maps are sorted by key.
func (d *Document) JSON() ([]byte, error) {
	return EncodeJSON(d)
}

// YAML encodes the document as YAML with the key order of JSON.
func (d *Document) YAML() ([]byte, error) {
	return EncodeYAML(d)
}

// EncodeJSON encodes any document fragment as indented JSON.
func EncodeJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode JSON")
	}
	return data, nil
}

// EncodeYAML encodes any document fragment as YAML. The JSON encoding is
// converted node by node, so json tags and ordered maps apply.
func EncodeYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode YAML")
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(err, "encode YAML")
	}
	clearStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, errors.Wrap(err, "encode YAML")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "encode YAML")
	}
	return buf.Bytes(), nil
}

// clearStyle turns JSON flow style into block style. Strings keep quoting
// where plain style would change their type.
func clearStyle(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		if n.Tag == "!!str" {
			n.Style = 0
		}
	} else {
		n.Style = 0
	}
	for _, c := range n.Content {
		clearStyle(c)
	}
}
