package memlib

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const moduleOp = "builtin.module"

// printer writes operations in generic form, except that builtin.module uses
// its custom form. Value and block names are assigned in print order, so
// printing a nested operation alone renumbers it.
type printer struct {
	w       io.Writer
	values  map[*value]string
	blocks  map[*block]string
	nextID  int
	nextArg int
}

func newPrinter(w io.Writer) *printer {
	return &printer{
		w:      w,
		values: make(map[*value]string),
		blocks: make(map[*block]string),
	}
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// name assigns names to everything op defines, in print order.
func (p *printer) name(op *operation) {
	switch len(op.results) {
	case 0:
	case 1:
		p.values[op.results[0]] = "%" + strconv.Itoa(p.nextID)
		p.nextID++
	default:
		base := "%" + strconv.Itoa(p.nextID)
		p.nextID++
		for i, r := range op.results {
			p.values[r] = base + "#" + strconv.Itoa(i)
		}
	}
	for _, r := range op.regions {
		for i, b := range r.blocks {
			p.blocks[b] = "^bb" + strconv.Itoa(i)
			for _, a := range b.args {
				p.values[a] = "%arg" + strconv.Itoa(p.nextArg)
				p.nextArg++
			}
			for _, child := range b.ops {
				p.name(child)
			}
		}
	}
}

func (p *printer) valueName(v *value) string {
	if n, ok := p.values[v]; ok {
		return n
	}
	return "<<UNKNOWN SSA VALUE>>"
}

func (p *printer) blockName(b *block) string {
	if n, ok := p.blocks[b]; ok {
		return n
	}
	return "^INVALID_BLOCK"
}

func (p *printer) operation(op *operation, indent int) {
	pad := strings.Repeat(" ", indent)
	p.printf("%s", pad)

	if len(op.results) > 0 {
		n := p.valueName(op.results[0])
		if len(op.results) > 1 {
			n, _, _ = strings.Cut(n, "#")
			n += ":" + strconv.Itoa(len(op.results))
		}
		p.printf("%s = ", n)
	}

	name := string(op.name.text)
	if name == moduleOp && len(op.regions) == 1 && len(op.operands) == 0 && len(op.results) == 0 && len(op.props) == 0 {
		p.module(op, indent)
		return
	}

	p.printf("%q(", name)
	for i, v := range op.operands {
		if i > 0 {
			p.printf(", ")
		}
		p.printf("%s", p.valueName(v))
	}
	p.printf(")")

	if len(op.successors) > 0 {
		p.printf("[")
		for i, s := range op.successors {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s", p.blockName(s))
		}
		p.printf("]")
	}
	if len(op.props) > 0 {
		p.printf(" <%s>", dict(op.props))
	}
	if len(op.regions) > 0 {
		p.printf(" (")
		for i, r := range op.regions {
			if i > 0 {
				p.printf(", ")
			}
			p.region(r, indent)
		}
		p.printf(")")
	}
	if len(op.attrs) > 0 {
		p.printf(" %s", dict(op.attrs))
	}

	var ins, outs []string
	for _, v := range op.operands {
		ins = append(ins, string(v.typ.text))
	}
	for _, v := range op.results {
		outs = append(outs, string(v.typ.text))
	}
	p.printf(" : (%s) -> %s", strings.Join(ins, ", "), resultTypes(outs))
}

func (p *printer) module(op *operation, indent int) {
	p.printf("module")
	var rest []namedAttr
	for _, na := range op.attrs {
		if string(na.name.text) == "sym_name" {
			if s, err := strconv.Unquote(string(na.attr.text)); err == nil {
				p.printf(" @%s", symbol(s))
				continue
			}
		}
		rest = append(rest, na)
	}
	if len(rest) > 0 {
		p.printf(" attributes %s", dict(rest))
	}
	p.printf(" ")
	p.region(op.regions[0], indent)
}

func (p *printer) region(r *region, indent int) {
	p.printf("{\n")
	for i, b := range r.blocks {
		if i > 0 || len(b.args) > 0 {
			p.blockHeader(b, indent)
		}
		for _, op := range b.ops {
			p.operation(op, indent+2)
			p.printf("\n")
		}
	}
	p.printf("%s}", strings.Repeat(" ", indent))
}

func (p *printer) blockHeader(b *block, indent int) {
	p.printf("%s%s", strings.Repeat(" ", indent), p.blockName(b))
	if len(b.args) > 0 {
		p.printf("(")
		for i, a := range b.args {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s: %s", p.valueName(a), a.typ.text)
		}
		p.printf(")")
	}
	p.printf(":\n")
}

// block prints a block on its own, always with its header.
func (p *printer) block(b *block) {
	p.blocks[b] = "^bb0"
	for _, a := range b.args {
		p.values[a] = "%arg" + strconv.Itoa(p.nextArg)
		p.nextArg++
	}
	for _, op := range b.ops {
		p.name(op)
	}
	p.blockHeader(b, 0)
	for _, op := range b.ops {
		p.operation(op, 2)
		p.printf("\n")
	}
}

func resultTypes(types []string) string {
	if len(types) == 1 && !strings.HasPrefix(types[0], "(") {
		return types[0]
	}
	return "(" + strings.Join(types, ", ") + ")"
}

func dict(attrs []namedAttr) string {
	parts := make([]string, len(attrs))
	for i, na := range attrs {
		parts[i] = namedAttrString(na)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func namedAttrString(na namedAttr) string {
	name := symbol(string(na.name.text))
	if string(na.attr.text) == "unit" && !na.attr.explicit {
		return name
	}
	return name + " = " + attributeString(na.attr)
}

func attributeString(a *attribute) string {
	if a.explicit {
		return string(a.text) + " : " + string(a.typ.text)
	}
	return string(a.text)
}

// symbol quotes a name that is not a bare identifier.
func symbol(s string) string {
	if s == "" {
		return `""`
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		bare := 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' ||
			i > 0 && (isDigit(ch) || ch == '$' || ch == '.')
		if !bare {
			return strconv.Quote(s)
		}
	}
	return s
}
