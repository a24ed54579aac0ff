package commands

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

// testContext is an in-memory Context.
type testContext struct {
	args     []string
	stdin    *strings.Reader
	out      bytes.Buffer
	vars     map[string]string
	exported map[string]bool
	wd       string
	exited   *int
	sourced  []string
	invalid  []error
}

var _ Context = (*testContext)(nil)

func newTestContext(stdin string, args ...string) *testContext {
	return &testContext{
		args:     args,
		stdin:    strings.NewReader(stdin),
		vars:     map[string]string{"?": "0", EnvHome: "/home/test"},
		exported: map[string]bool{EnvHome: true},
		wd:       "/",
	}
}

func (c *testContext) Args() []string    { return c.args }
func (c *testContext) Stdout() io.Writer { return &c.out }
func (c *testContext) Stderr() io.Writer { return &c.out }

func (c *testContext) ReadLine() (string, error) {
	var line strings.Builder
	for {
		b, err := c.stdin.ReadByte()
		if err != nil {
			return line.String(), io.EOF
		}
		line.WriteByte(b)
		if b == '\n' {
			return line.String(), nil
		}
	}
}

func (c *testContext) Getenv(key string) string { return c.vars[key] }

func (c *testContext) LookupEnv(key string) (string, bool) {
	v, ok := c.vars[key]
	return v, ok
}

func (c *testContext) Setenv(key, value string) { c.vars[key] = value }

func (c *testContext) Unsetenv(key string) {
	delete(c.vars, key)
	delete(c.exported, key)
}

func (c *testContext) Export(key string) { c.exported[key] = true }

func (c *testContext) Exported() []string {
	var out []string
	for k := range c.exported {
		if v, ok := c.vars[k]; ok {
			out = append(out, k+"="+v)
		}
	}
	sort.Strings(out)
	return out
}

func (c *testContext) Getwd() string { return c.wd }

func (c *testContext) Chdir(dir string) error {
	if strings.HasPrefix(dir, "/missing") {
		return errors.New(dir + ": no such file or directory")
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.wd, dir)
	}
	c.wd = dir
	return nil
}

func (c *testContext) Exit(status int) { c.exited = &status }

func (c *testContext) Source(path string, args []string) int {
	c.sourced = append(c.sourced, path)
	return len(args)
}

func (c *testContext) LogInvalidInvocation(err error) { c.invalid = append(c.invalid, err) }

func TestAllBuiltins(t *testing.T) {
	for _, name := range ListBuiltins() {
		t.Run(name, func(t *testing.T) {
			if AllBuiltins[name] == nil {
				t.Fatal("nil builtin", name)
			}
		})
	}

	for _, name := range []string{"echo", "read", "cd", "pwd", "exit", "true", "false", "export", "source", ".", "type"} {
		_, ok := LookupBuiltin(name)
		assert.True(t, ok, name)
	}
}

func TestHelpFlag(t *testing.T) {
	for _, name := range []string{"read", "cd", "export", "true"} {
		t.Run(name, func(t *testing.T) {
			ctx := newTestContext("", name, "--help")
			status := AllBuiltins[name](ctx)
			assert.Equal(t, 0, status)
			assert.True(t, strings.HasPrefix(ctx.out.String(), "usage: "), ctx.out.String())
		})
	}
}

func TestBadFlag(t *testing.T) {
	ctx := newTestContext("", "read", "-z")
	assert.Equal(t, 2, Read(ctx))
	assert.Len(t, ctx.invalid, 1)
}

type goldenTestSuite map[string]goldenTest

type goldenTest struct {
	Args  []string
	Stdin string
}

func (gts goldenTestSuite) Run(t *testing.T, cmd BuiltinFunc) {
	t.Helper()

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
	)

	for tn, tc := range gts {
		t.Run(tn, func(t *testing.T) {
			ctx := newTestContext(tc.Stdin, tc.Args...)
			cmd(ctx)
			g.Assert(t, tn, ctx.out.Bytes())
		})
	}
}
