package memlib

import (
	"fmt"

	"github.com/thiremani/cirrus/ast"
	"github.com/thiremani/cirrus/token"
)

// forwardRef is an operand used before its definition was seen.
type forwardRef struct {
	op       *operation
	slot     int
	ref      *ast.ValueRef
	declared string
}

// builder turns a parsed module into graph nodes, resolving SSA names.
// Values defined in a region are visible in the regions nested in it, and a
// use may precede its definition anywhere in the enclosing regions.
type builder struct {
	ctx     *context
	mod     *module
	values  []Scope[[]*value]
	pending [][]forwardRef
	labels  []map[string]*block
}

func errorAt(tok token.Token, format string, args ...any) *token.Error {
	return &token.Error{Token: tok, Msg: fmt.Sprintf(format, args...)}
}

func build(ctx *context, root *ast.Operation) (*module, *token.Error) {
	mod := &module{ctx: ctx}
	b := &builder{ctx: ctx, mod: mod}

	b.openScope(RootScope)
	op, err := b.operation(root)
	if err != nil {
		return nil, err
	}
	if err := b.closeScope(); err != nil {
		return nil, err
	}
	mod.op = op
	return mod, nil
}

func (b *builder) openScope(sk ScopeKind) {
	PushScope(&b.values, sk)
	b.pending = append(b.pending, nil)
}

// closeScope resolves the forward references collected in the innermost
// scope. What is still unknown moves to the enclosing scope; at the root it
// is an error.
func (b *builder) closeScope() *token.Error {
	top := len(b.pending) - 1
	refs := b.pending[top]
	b.pending = b.pending[:top]

	var unresolved []forwardRef
	for _, fr := range refs {
		v, ok, err := b.lookup(fr.ref, fr.declared)
		if err != nil {
			return err
		}
		if ok {
			fr.op.operands[fr.slot] = v
		} else {
			unresolved = append(unresolved, fr)
		}
	}
	PopScope(&b.values)

	if top == 0 {
		if len(unresolved) > 0 {
			fr := unresolved[0]
			return errorAt(fr.ref.Token, "use of undeclared SSA value name %s", fr.ref.Name)
		}
		return nil
	}
	b.pending[top-1] = append(b.pending[top-1], unresolved...)
	return nil
}

func (b *builder) lookup(ref *ast.ValueRef, declared string) (*value, bool, *token.Error) {
	pack, ok := Get(b.values, ref.Name)
	if !ok {
		return nil, false, nil
	}
	if ref.Index >= len(pack) {
		return nil, false, errorAt(ref.Token, "reference to invalid result number %d: %s has %d results", ref.Index, ref.Name, len(pack))
	}
	v := pack[ref.Index]
	if got := string(v.typ.text); got != declared {
		return nil, false, errorAt(ref.Token, "use of value %s expects different type than prior uses: '%s' vs '%s'", ref, declared, got)
	}
	return v, true, nil
}

func (b *builder) checkType(tok token.Token, text string) *token.Error {
	for _, ns := range typeNamespaces(text) {
		if !b.ctx.accepts(ns) {
			return errorAt(tok, "type %s belongs to unregistered dialect %q", text, ns)
		}
	}
	return nil
}

func (b *builder) operation(a *ast.Operation) (*operation, *token.Error) {
	if ns := opNamespace(a.Name); !b.ctx.accepts(ns) {
		return nil, errorAt(a.Token, "operation %q belongs to unregistered dialect %q; allow unregistered dialects to parse it", a.Name, ns)
	}
	if n := a.NumResults(); n > 0 && n != len(a.Type.Results) {
		return nil, errorAt(a.Token, "operation defines %d results but was provided %d to bind", len(a.Type.Results), n)
	}
	for _, t := range append(append([]string{}, a.Type.Inputs...), a.Type.Results...) {
		if err := b.checkType(a.Type.Token, t); err != nil {
			return nil, err
		}
	}

	op := &operation{mod: b.mod, name: b.ctx.identifier(a.Name)}

	for i, t := range a.Type.Results {
		op.results = append(op.results, &value{mod: b.mod, typ: b.ctx.typ(t), index: i, def: op})
	}
	k := 0
	for _, r := range a.Results {
		if err := Put(b.values, r.Name, op.results[k:k+r.Count]); err != nil {
			return nil, errorAt(r.Token, "redefinition of SSA value %s", r.Name)
		}
		k += r.Count
	}

	op.operands = make([]*value, len(a.Operands))
	for i, ref := range a.Operands {
		declared := a.Type.Inputs[i]
		v, ok, err := b.lookup(ref, declared)
		if err != nil {
			return nil, err
		}
		if ok {
			op.operands[i] = v
			continue
		}
		top := len(b.pending) - 1
		b.pending[top] = append(b.pending[top], forwardRef{op: op, slot: i, ref: ref, declared: declared})
	}

	for _, s := range a.Successors {
		var target *block
		if n := len(b.labels); n > 0 {
			target = b.labels[n-1][s.Label]
		}
		if target == nil {
			return nil, errorAt(s.Token, "reference to an undefined block %s", s.Label)
		}
		op.successors = append(op.successors, target)
	}

	op.props = b.attributes(a.Properties)
	op.attrs = b.attributes(a.Attrs)

	var prev *region
	for _, ar := range a.Regions {
		r, err := b.region(ar)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			prev.next = r
		}
		op.regions = append(op.regions, r)
		prev = r
	}
	return op, nil
}

func (b *builder) attributes(in []*ast.NamedAttr) []namedAttr {
	var out []namedAttr
	for _, na := range in {
		out = append(out, namedAttr{
			name: b.ctx.identifier(na.Name),
			attr: b.ctx.attribute(na.Value, na.Type),
		})
	}
	return out
}

func (b *builder) region(ar *ast.Region) (*region, *token.Error) {
	r := &region{mod: b.mod}
	b.openScope(RegionScope)

	// blocks are created up front so branches can target later blocks
	labels := make(map[string]*block)
	var prev *block
	for _, ab := range ar.Blocks {
		blk := &block{mod: b.mod, label: ab.Label}
		if ab.Label != "" {
			if _, ok := labels[ab.Label]; ok {
				return nil, errorAt(ab.Token, "redefinition of block %s", ab.Label)
			}
			labels[ab.Label] = blk
		}
		if prev != nil {
			prev.next = blk
		}
		r.blocks = append(r.blocks, blk)
		prev = blk
	}
	b.labels = append(b.labels, labels)

	for i, ab := range ar.Blocks {
		blk := r.blocks[i]
		for j, arg := range ab.Args {
			if err := b.checkType(arg.Token, arg.Type); err != nil {
				return nil, err
			}
			v := &value{mod: b.mod, typ: b.ctx.typ(arg.Type), index: j, owner: blk}
			if err := Put(b.values, arg.Name, []*value{v}); err != nil {
				return nil, errorAt(arg.Token, "redefinition of SSA value %s", arg.Name)
			}
			blk.args = append(blk.args, v)
		}

		var prevOp *operation
		for _, aop := range ab.Ops {
			op, err := b.operation(aop)
			if err != nil {
				return nil, err
			}
			if prevOp != nil {
				prevOp.next = op
			}
			blk.ops = append(blk.ops, op)
			prevOp = op
		}
	}

	b.labels = b.labels[:len(b.labels)-1]
	if err := b.closeScope(); err != nil {
		return nil, err
	}
	return r, nil
}
