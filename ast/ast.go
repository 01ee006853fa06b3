package ast

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/thiremani/cirrus/token"
)

// The base Node interface
type Node interface {
	Tok() token.Token
	String() string
}

// Operation is one op in generic form. The top-level module is an Operation
// named builtin.module with a single region.
type Operation struct {
	Token      token.Token // the op name token
	Results    []*Result
	Name       string
	Operands   []*ValueRef
	Successors []*BlockRef
	Properties []*NamedAttr
	Regions    []*Region
	Attrs      []*NamedAttr
	Type       *FuncType
}

func (op *Operation) Tok() token.Token { return op.Token }

// NumResults counts results across packs (%0:2 declares two).
func (op *Operation) NumResults() int {
	n := 0
	for _, r := range op.Results {
		n += r.Count
	}
	return n
}

func (op *Operation) String() string {
	var out bytes.Buffer

	if len(op.Results) > 0 {
		out.WriteString(join(op.Results))
		out.WriteString(" = ")
	}
	fmt.Fprintf(&out, "%q(%s)", op.Name, join(op.Operands))
	if len(op.Successors) > 0 {
		out.WriteString("[" + join(op.Successors) + "]")
	}
	if len(op.Properties) > 0 {
		out.WriteString(" <{" + join(op.Properties) + "}>")
	}
	if len(op.Regions) > 0 {
		out.WriteString(" (" + join(op.Regions) + ")")
	}
	if len(op.Attrs) > 0 {
		out.WriteString(" {" + join(op.Attrs) + "}")
	}
	if op.Type != nil {
		out.WriteString(" : " + op.Type.String())
	}
	return out.String()
}

// Result names a result pack.
type Result struct {
	Token token.Token
	Name  string // including the % sigil
	Count int
}

func (r *Result) Tok() token.Token { return r.Token }

func (r *Result) String() string {
	if r.Count == 1 {
		return r.Name
	}
	return fmt.Sprintf("%s:%d", r.Name, r.Count)
}

// ValueRef is a use of an SSA value.
type ValueRef struct {
	Token token.Token
	Name  string // %x
	Index int    // result number within the pack, %x#1
}

func (v *ValueRef) Tok() token.Token { return v.Token }

func (v *ValueRef) String() string {
	if v.Index == 0 {
		return v.Name
	}
	return fmt.Sprintf("%s#%d", v.Name, v.Index)
}

// BlockRef is a successor reference.
type BlockRef struct {
	Token token.Token
	Label string // ^bb1
}

func (b *BlockRef) Tok() token.Token { return b.Token }
func (b *BlockRef) String() string   { return b.Label }

type Region struct {
	Token  token.Token // the { token
	Blocks []*Block
}

func (r *Region) Tok() token.Token { return r.Token }

func (r *Region) String() string {
	var out bytes.Buffer
	out.WriteString("{\n")
	for _, b := range r.Blocks {
		out.WriteString(b.String())
	}
	out.WriteString("}")
	return out.String()
}

// Block is a labeled list of operations. The entry block of a region may be
// written without a label, in which case Label is empty.
type Block struct {
	Token token.Token
	Label string
	Args  []*BlockArg
	Ops   []*Operation
}

func (b *Block) Tok() token.Token { return b.Token }

func (b *Block) String() string {
	var out bytes.Buffer
	if b.Label != "" {
		out.WriteString(b.Label)
		if len(b.Args) > 0 {
			out.WriteString("(" + join(b.Args) + ")")
		}
		out.WriteString(":\n")
	}
	for _, op := range b.Ops {
		out.WriteString("  " + op.String() + "\n")
	}
	return out.String()
}

type BlockArg struct {
	Token token.Token
	Name  string
	Type  string
}

func (a *BlockArg) Tok() token.Token { return a.Token }
func (a *BlockArg) String() string   { return a.Name + ": " + a.Type }

// NamedAttr is an entry of an attribute dictionary. Value and Type hold the
// source text; a unit attribute has Value "unit".
type NamedAttr struct {
	Token token.Token
	Name  string
	Value string
	Type  string
}

func (na *NamedAttr) Tok() token.Token { return na.Token }

func (na *NamedAttr) String() string {
	s := na.Name + " = " + na.Value
	if na.Type != "" {
		s += " : " + na.Type
	}
	return s
}

type FuncType struct {
	Token   token.Token
	Inputs  []string
	Results []string
}

func (ft *FuncType) Tok() token.Token { return ft.Token }

func (ft *FuncType) String() string {
	return "(" + strings.Join(ft.Inputs, ", ") + ") -> (" + strings.Join(ft.Results, ", ") + ")"
}

func join[N Node](nodes []N) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
