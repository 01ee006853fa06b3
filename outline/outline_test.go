package outline

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/thiremani/cirrus/memlib"
	"github.com/thiremani/cirrus/mlir"
)

const circuitSrc = `module {
  %0 = "test.a"() : () -> i32
  "firrtl.circuit"() ({
    "firrtl.module"() ({
    ^bb0(%clock: !firrtl.clock):
    }) {sym_name = "Top"} : () -> ()
  }) {name = "Top"} : () -> ()
  %1:2 = "test.b"(%0, %0) {x = 1, y = "s"} : (i32, i32) -> (i1, i1)
  "test.two"() ({
  }, {
    "test.c"() : () -> ()
  }) : () -> ()
}`

const nestedSrc = `%0 = "test.a"() : () -> i32
"test.r"(%0) ({
^bb0(%a: i32):
  "test.c"() : () -> ()
}) {k = true} : (i32) -> ()`

func outlineOf(t *testing.T, src string) *Node {
	t.Helper()
	ctx := mlir.NewContext(memlib.New(memlib.WithDiagnostics(&bytes.Buffer{})))
	t.Cleanup(ctx.Close)
	ctx.Borrow().AllowUnregisteredDialects(true)

	m, err := mlir.ParseModule(ctx.Borrow(), src)
	require.NoError(t, err)
	defer m.Close()

	n, err := FromModule(m.Borrow())
	require.NoError(t, err)
	return n
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestBuild(t *testing.T) {
	n := outlineOf(t, circuitSrc)
	require.Equal(t, "builtin.module", n.Name)
	require.Len(t, n.Regions, 1)
	require.Len(t, n.Regions[0].Blocks, 1)

	ops := n.Regions[0].Blocks[0].Operations
	require.Len(t, ops, 4)
	assert.Equal(t, []string{"i32"}, ops[0].Results)
	assert.Equal(t, 2, ops[2].Operands)
	assert.Equal(t, []string{"i1", "i1"}, ops[2].Results)
	assert.Equal(t, []Attr{{"x", "1"}, {"y", `"s"`}}, ops[2].Attributes)

	top := ops[1].Regions[0].Blocks[0].Operations[0]
	assert.Equal(t, "firrtl.module", top.Name)
	assert.Equal(t, []string{"!firrtl.clock"}, top.Regions[0].Blocks[0].Arguments)

	two := ops[3]
	require.Len(t, two.Regions, 2)
	assert.Empty(t, two.Regions[0].Blocks)
	assert.Equal(t, 7, n.Count())
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, outlineOf(t, circuitSrc), Text, false))
	newGoldie(t).Assert(t, "circuit_text", buf.Bytes())
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, outlineOf(t, nestedSrc), JSON, false))
	newGoldie(t).Assert(t, "nested_json", buf.Bytes())
}

func TestRenderYAML(t *testing.T) {
	n := outlineOf(t, nestedSrc)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, n, YAML, false))
	assert.Contains(t, buf.String(), "name: builtin.module\n")
	assert.Contains(t, buf.String(), `value: "true"`)

	var back Node
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, n, &back)
}

func TestRenderColor(t *testing.T) {
	var plain, colored bytes.Buffer
	n := outlineOf(t, nestedSrc)
	require.NoError(t, Render(&plain, n, Text, false))
	require.NoError(t, Render(&colored, n, Text, true))
	assert.NotContains(t, plain.String(), "\x1b[")
	assert.Contains(t, colored.String(), "\x1b[")
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)
}
