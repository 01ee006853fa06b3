// Package outline summarises a parsed module as a tree of operations,
// regions and blocks that can be rendered as text, JSON or YAML.
package outline

import (
	"fmt"

	"github.com/thiremani/cirrus/mlir"
)

// Node is one operation.
type Node struct {
	Name       string   `json:"name" yaml:"name"`
	Operands   int      `json:"operands,omitempty" yaml:"operands,omitempty"`
	Results    []string `json:"results,omitempty" yaml:"results,omitempty"`
	Attributes []Attr   `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Regions    []Region `json:"regions,omitempty" yaml:"regions,omitempty"`
}

type Attr struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

type Region struct {
	Blocks []Block `json:"blocks" yaml:"blocks"`
}

type Block struct {
	Arguments  []string `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Operations []*Node  `json:"operations,omitempty" yaml:"operations,omitempty"`
}

// FromModule outlines the module's top-level operation.
func FromModule(m mlir.Module) (*Node, error) {
	op, ok := m.Operation()
	if !ok {
		return nil, fmt.Errorf("outline: module has no operation")
	}
	return Build(op)
}

// Build outlines op and everything nested in it. Names must be valid UTF-8.
func Build(op mlir.Operation) (*Node, error) {
	name, err := op.Name().StringRef().Text()
	if err != nil {
		return nil, fmt.Errorf("outline: operation name: %w", err)
	}
	n := &Node{Name: name, Operands: op.NumOperands()}

	for _, v := range op.Results() {
		n.Results = append(n.Results, typeOf(v))
	}
	for _, na := range op.Attributes() {
		attrName, err := na.Name.StringRef().Text()
		if err != nil {
			return nil, fmt.Errorf("outline: attribute of %s: %w", name, err)
		}
		n.Attributes = append(n.Attributes, Attr{Name: attrName, Value: na.Attribute.String()})
	}
	for r := range op.Regions() {
		region := Region{Blocks: []Block{}}
		for b := range r.Blocks() {
			block, err := buildBlock(b)
			if err != nil {
				return nil, err
			}
			region.Blocks = append(region.Blocks, block)
		}
		n.Regions = append(n.Regions, region)
	}
	return n, nil
}

func buildBlock(b mlir.Block) (Block, error) {
	var block Block
	for _, arg := range b.Arguments() {
		block.Arguments = append(block.Arguments, typeOf(arg))
	}
	for op := range b.Operations() {
		child, err := Build(op)
		if err != nil {
			return Block{}, err
		}
		block.Operations = append(block.Operations, child)
	}
	return block, nil
}

func typeOf(v mlir.Value) string {
	t, ok := v.Type()
	if !ok {
		return "<<NULL TYPE>>"
	}
	return t.String()
}

// Count returns the number of operations in the tree rooted at n.
func (n *Node) Count() int {
	total := 1
	for _, r := range n.Regions {
		for _, b := range r.Blocks {
			for _, op := range b.Operations {
				total += op.Count()
			}
		}
	}
	return total
}
