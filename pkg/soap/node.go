/*
2026 © Postgres.ai
*/

package soap

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

const (
	attrPrefix = "@_"
	textKey    = "#text"
)

// Node is an XML element with namespace prefixes kept as written.
type Node struct {
	Name     string
	Attrs    []xml.Attr
	Text     string
	Children []*Node
}

// parseXML builds a node tree. Prefixes are not resolved, so lookups match local names
// and documents are accepted whatever prefix convention the server uses.
func parseXML(data []byte) (*Node, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
		texts []*strings.Builder
	)

	for {
		token, err := decoder.RawToken()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrap(err, "failed to read XML token")
		}

		switch t := token.(type) {
		case xml.StartElement:
			node := &Node{Name: qualifiedName(t.Name), Attrs: append([]xml.Attr(nil), t.Attr...)}

			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			} else {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}

				root = node
			}

			stack = append(stack, node)
			texts = append(texts, &strings.Builder{})

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.Errorf("unexpected closing tag %q", qualifiedName(t.Name))
			}

			node := stack[len(stack)-1]
			if node.Name != qualifiedName(t.Name) {
				return nil, errors.Errorf("element %q closed by %q", node.Name, qualifiedName(t.Name))
			}

			node.Text = strings.TrimSpace(texts[len(texts)-1].String())
			stack = stack[:len(stack)-1]
			texts = texts[:len(texts)-1]

		case xml.CharData:
			if len(texts) > 0 {
				texts[len(texts)-1].Write(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("no root element")
	}

	if len(stack) > 0 {
		return nil, errors.Errorf("element %q is not closed", stack[len(stack)-1].Name)
	}

	return root, nil
}

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}

	return name.Space + ":" + name.Local
}

func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}

	return name
}

// Local returns the element name without a prefix.
func (n *Node) Local() string {
	return localName(n.Name)
}

// Child returns the first child with the given local name.
func (n *Node) Child(local string) *Node {
	if n == nil {
		return nil
	}

	for _, child := range n.Children {
		if child.Local() == local {
			return child
		}
	}

	return nil
}

// ChildrenNamed returns all children with the given local name.
func (n *Node) ChildrenNamed(local string) []*Node {
	if n == nil {
		return nil
	}

	children := make([]*Node, 0)

	for _, child := range n.Children {
		if child.Local() == local {
			children = append(children, child)
		}
	}

	return children
}

// Path follows a chain of local names.
func (n *Node) Path(locals ...string) *Node {
	current := n

	for _, local := range locals {
		current = current.Child(local)
		if current == nil {
			return nil
		}
	}

	return current
}

// Find returns the first descendant with the given local name, depth first.
func (n *Node) Find(local string) *Node {
	if n == nil {
		return nil
	}

	for _, child := range n.Children {
		if child.Local() == local {
			return child
		}

		if found := child.Find(local); found != nil {
			return found
		}
	}

	return nil
}

// Attr returns an attribute value by local name.
func (n *Node) Attr(local string) (string, bool) {
	for _, attr := range n.Attrs {
		if attr.Name.Local == local {
			return attr.Value, true
		}
	}

	return "", false
}

// IsNil reports whether the element carries xsi:nil="true".
func (n *Node) IsNil() bool {
	value, ok := n.Attr("nil")

	return ok && strings.EqualFold(strings.TrimSpace(value), "true")
}

// InnerXML renders child elements back to markup.
func (n *Node) InnerXML() string {
	buf := bytes.Buffer{}

	for _, child := range n.Children {
		child.writeTo(&buf)
	}

	return buf.String()
}

func (n *Node) writeTo(buf *bytes.Buffer) {
	buf.WriteString("<" + n.Name)

	for _, attr := range n.Attrs {
		buf.WriteString(" " + qualifiedName(attr.Name) + `="`)
		_ = xml.EscapeText(buf, []byte(attr.Value))
		buf.WriteString(`"`)
	}

	if len(n.Children) == 0 && n.Text == "" {
		buf.WriteString("/>")
		return
	}

	buf.WriteString(">")
	_ = xml.EscapeText(buf, []byte(n.Text))

	for _, child := range n.Children {
		child.writeTo(buf)
	}

	buf.WriteString("</" + n.Name + ">")
}

// Value converts the node into generic maps, slices and strings.
// Attributes get the "@_" prefix, repeated children become slices.
func (n *Node) Value() interface{} {
	if len(n.Children) == 0 && len(n.Attrs) == 0 {
		return n.Text
	}

	value := make(map[string]interface{})

	for _, attr := range n.Attrs {
		value[attrPrefix+qualifiedName(attr.Name)] = attr.Value
	}

	for _, child := range n.Children {
		childValue := child.Value()

		existing, ok := value[child.Name]
		if !ok {
			value[child.Name] = childValue
			continue
		}

		if list, isList := existing.([]interface{}); isList {
			value[child.Name] = append(list, childValue)
			continue
		}

		value[child.Name] = []interface{}{existing, childValue}
	}

	if n.Text != "" {
		value[textKey] = n.Text
	}

	return value
}

// Document converts the node into a generic structure keyed by the root name.
func (n *Node) Document() map[string]interface{} {
	return map[string]interface{}{n.Name: n.Value()}
}
