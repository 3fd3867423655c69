package bundle

import (
	"image"
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"

	runtimeembed "luabundle/runtime"
)

func runLua(t *testing.T, code string) (*lua.LState, error) {
	t.Helper()
	L := lua.NewState()
	t.Cleanup(L.Close)
	return L, L.DoString(code)
}

func TestBundleEvaluatesEachModuleOnce(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.lua", strings.Join([]string{
		"local first = require('counter')",
		"local second = require \"counter\"",
		"local none = require('nothing')",
		"local again = require('nothing')",
		"return { evaluated = evaluated, same = first == second, none = none, again = again }",
		"",
	}, "\n"))
	writeFile(t, root, "counter.lua", "evaluated = (evaluated or 0) + 1\nreturn {}\n")
	writeFile(t, root, "nothing.lua", "nothing_runs = (nothing_runs or 0) + 1\n")

	b, _ := newTestBuilder(root)
	g, err := b.Build("main")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, err := Assemble(g, AssembleOptions{ReturnEntry: true})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	L, err := runLua(t, string(out))
	if err != nil {
		t.Fatalf("bundle failed to run: %v\n%s", err, out)
	}
	res, ok := L.Get(-1).(*lua.LTable)
	if !ok {
		t.Fatalf("entry returned %s", L.Get(-1).Type())
	}
	if n := res.RawGetString("evaluated"); n != lua.LNumber(1) {
		t.Errorf("counter evaluated %v times", n)
	}
	if res.RawGetString("same") != lua.LTrue {
		t.Error("two requires returned different values")
	}
	if res.RawGetString("none") != lua.LNil {
		t.Error("module without return must yield nil")
	}
	if runs := L.GetGlobal("nothing_runs"); runs != lua.LNumber(1) {
		t.Errorf("nil-returning module evaluated %v times", runs)
	}
}

func TestRuntimeUndefinedModule(t *testing.T) {
	_, err := runLua(t, "require = nil\n"+runtimeembed.Prelude()+"require('missing.lua')\n")
	if err == nil {
		t.Fatal("expected error for undefined module")
	}
	if !strings.Contains(err.Error(), "module 'missing.lua' is not defined") {
		t.Fatalf("error does not name the id: %v", err)
	}
}

func TestRuntimeFallsBackToHostRequire(t *testing.T) {
	code := "package.preload['host.mod'] = function() return 42 end\n" +
		runtimeembed.Prelude() +
		"define('a.lua', function() return require('host.mod') + 1 end)\n" +
		"return require('a.lua')\n"
	L, err := runLua(t, code)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := L.Get(-1); got != lua.LNumber(43) {
		t.Fatalf("got %v, want 43", got)
	}

	if _, err := runLua(t, runtimeembed.Prelude()+"require('nowhere.to.be.found')\n"); err == nil {
		t.Fatal("host require must still fail for unknown modules")
	}
}

func TestRuntimeMemoizesFalse(t *testing.T) {
	code := runtimeembed.Prelude() + strings.Join([]string{
		"local n = 0",
		"define('f', function() n = n + 1 return false end)",
		"local a, b = require('f'), require('f')",
		"return n, a, b",
		"",
	}, "\n")
	L, err := runLua(t, code)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if L.Get(-3) != lua.LNumber(1) || L.Get(-2) != lua.LFalse || L.Get(-1) != lua.LFalse {
		t.Fatalf("got %v %v %v", L.Get(-3), L.Get(-2), L.Get(-1))
	}
}

func TestBundleAssetsAreLuaValues(t *testing.T) {
	root := t.TempDir()
	writePNG(t, root, "img/dot.png", 2, 2, image.Pt(1, 0))
	writeFile(t, root, "main.lua", "local m = require('img/dot.png')\nreturn m[1][2] + m[2][1] * 10\n")

	b, _ := newTestBuilder(root)
	g, err := b.Build("main")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, err := Assemble(g, AssembleOptions{ReturnEntry: true})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	L, err := runLua(t, string(out))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := L.Get(-1); got != lua.LNumber(1) {
		t.Fatalf("m[1][2] + m[2][1]*10 = %v, want 1", got)
	}
}
