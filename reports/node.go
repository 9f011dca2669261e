// Package reports reads ICH E2B safety report documents and extracts, per
// report, the drugs taken and the adverse events observed.
package reports

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/giygas/pvcohort/interfaces"
)

// Compile-time check to ensure element implements Node
var _ interfaces.Node = (*element)(nil)

// element is a generic XML element decoded without a schema
type element struct {
	XMLName  xml.Name
	Content  string     `xml:",chardata"`
	Elements []*element `xml:",any"`
}

func (e *element) Name() string {
	return e.XMLName.Local
}

func (e *element) Child(name string) interfaces.Node {
	for _, c := range e.Elements {
		if c.XMLName.Local == name {
			return c
		}
	}
	return nil
}

func (e *element) Children(name string) []interfaces.Node {
	var nodes []interfaces.Node
	for _, c := range e.Elements {
		if c.XMLName.Local == name {
			nodes = append(nodes, c)
		}
	}
	return nodes
}

func (e *element) Text() string {
	return strings.TrimSpace(e.Content)
}

// Parse decodes an XML document into a navigable tree and returns its root
func Parse(r io.Reader) (interfaces.Node, error) {
	var root element
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charsetReader
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("reports: failed to parse XML: %w", err)
	}
	return &root, nil
}

// childText returns the text of the first child named name, or "" when absent
func childText(n interfaces.Node, name string) string {
	if n == nil {
		return ""
	}
	child := n.Child(name)
	if child == nil {
		return ""
	}
	return child.Text()
}
