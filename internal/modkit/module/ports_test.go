package module

import (
	"testing"

	"mintwatch/internal/platform/testkit"

	phttp "mintwatch/internal/platform/net/http"
)

type FooPort interface{ Foo() int }

type fooImpl struct{ v int }

func (f fooImpl) Foo() int { return f.v }

type fakeModule struct {
	name  string
	ports any
}

func (m fakeModule) Name() string             { return m.name }
func (m fakeModule) Ports() PortSet           { return m.ports }
func (m fakeModule) MountRoutes(phttp.Router) {}

var _ Module = fakeModule{}

func TestPortsOf(t *testing.T) {
	type bundle struct {
		Other int
		Foo   FooPort
	}
	type hidden struct {
		foo FooPort
	}

	cases := []struct {
		name  string
		ports any
		ok    bool
		want  int
	}{
		{"nil ports", nil, false, 0},
		{"direct implementation", fooImpl{v: 1}, true, 1},
		{"struct field", bundle{Other: 3, Foo: fooImpl{v: 2}}, true, 2},
		{"unexported field is skipped", hidden{foo: fooImpl{v: 3}}, false, 0},
		{"unrelated value", 42, false, 0},
		{"struct pointer", &bundle{Foo: fooImpl{v: 4}}, true, 4},
		{"nil struct pointer", (*bundle)(nil), false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := PortsOf[FooPort](fakeModule{name: tc.name, ports: tc.ports})
			if ok != tc.ok {
				t.Fatalf("ok = %v want %v", ok, tc.ok)
			}
			if ok && got.Foo() != tc.want {
				t.Fatalf("Foo() = %d want %d", got.Foo(), tc.want)
			}
		})
	}
}

func TestMustPortsOf(t *testing.T) {
	m := fakeModule{name: "watcher", ports: fooImpl{v: 7}}
	if MustPortsOf[FooPort](m).Foo() != 7 {
		t.Fatalf("MustPortsOf returned the wrong port")
	}
	testkit.MustPanic(t, func() { MustPortsOf[FooPort](fakeModule{name: "empty"}) })
}
