package memlib

import "strings"

const builtinNamespace = "builtin"

// Namespaces are the dialects a Library offers handles for. builtin is
// always loaded and has no handle.
var Namespaces = []string{
	"func",
	"cf",
	"arith",
	"llvm",
	"firrtl",
	"hw",
	"seq",
	"comb",
	"sv",
}

// opNamespace returns the dialect prefix of an operation name.
func opNamespace(name string) string {
	ns, _, found := strings.Cut(name, ".")
	if !found {
		return builtinNamespace
	}
	return ns
}

// typeNamespaces returns the dialect prefixes of every !dialect.type
// mentioned in a type's text.
func typeNamespaces(text string) []string {
	var out []string
	for {
		i := strings.IndexByte(text, '!')
		if i < 0 {
			return out
		}
		text = text[i+1:]
		end := strings.IndexAny(text, ".<>,() ")
		if end < 0 {
			end = len(text)
		}
		if end > 0 && end < len(text) && text[end] == '.' {
			out = append(out, text[:end])
		}
		text = text[end:]
	}
}
