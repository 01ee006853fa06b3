package outline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

var Formats = []Format{Text, JSON, YAML}

// ParseFormat accepts the names in Formats.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("outline: unknown format %q (want text, json or yaml)", s)
}

// Render writes n to w in format f. Colour applies to the text format only.
func Render(w io.Writer, n *Node, f Format, colored bool) error {
	switch f {
	case Text:
		return newTextRenderer(w, colored).node(n, 0)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(n)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(n); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("outline: unknown format %q", f)
}

type textRenderer struct {
	w     io.Writer
	op    *color.Color
	block *color.Color
	attr  *color.Color
	typ   *color.Color
}

func newTextRenderer(w io.Writer, colored bool) *textRenderer {
	r := &textRenderer{
		w:     w,
		op:    color.New(color.FgCyan, color.Bold),
		block: color.New(color.FgMagenta),
		attr:  color.New(color.FgYellow),
		typ:   color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{r.op, r.block, r.attr, r.typ} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r *textRenderer) node(n *Node, depth int) error {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(r.op.Sprint(n.Name))
	if n.Operands > 0 {
		fmt.Fprintf(&sb, " (%d operands)", n.Operands)
	}
	if len(n.Results) > 0 {
		sb.WriteString(" -> ")
		sb.WriteString(r.typ.Sprint(strings.Join(n.Results, ", ")))
	}
	if len(n.Attributes) > 0 {
		attrs := make([]string, len(n.Attributes))
		for i, a := range n.Attributes {
			attrs[i] = a.Name + " = " + a.Value
		}
		sb.WriteString(" ")
		sb.WriteString(r.attr.Sprint("{" + strings.Join(attrs, ", ") + "}"))
	}
	sb.WriteString("\n")
	if _, err := io.WriteString(r.w, sb.String()); err != nil {
		return err
	}

	for i, region := range n.Regions {
		if len(n.Regions) > 1 {
			if _, err := fmt.Fprintf(r.w, "%sregion #%d\n", strings.Repeat("  ", depth+1), i); err != nil {
				return err
			}
		}
		for j, b := range region.Blocks {
			label := fmt.Sprintf("^bb%d", j)
			if len(b.Arguments) > 0 {
				label += "(" + r.typ.Sprint(strings.Join(b.Arguments, ", ")) + ")"
			}
			if _, err := fmt.Fprintf(r.w, "%s%s\n", strings.Repeat("  ", depth+1), r.block.Sprint(label)); err != nil {
				return err
			}
			for _, op := range b.Operations {
				if err := r.node(op, depth+2); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
