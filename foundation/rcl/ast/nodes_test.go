package ast

import "testing"

func TestResolveShortBeforeFull(t *testing.T) {
	tests := []struct {
		token string
		want  ResourceType
	}{
		{"tl", TypeTCPLB},
		{"tcp-lb", TypeTCPLB},
		{"sg", TypeServerGroup},
		{"server-group", TypeServerGroup},
		{"acceptedconncount", TypeAcceptedConnCount},
		{"accepted-conn-count", TypeAcceptedConnCount},
		{"sw", TypeSwitch},
		{"switch", TypeSwitch},
	}
	for _, tt := range tests {
		got, ok := ResolveResourceType(tt.token)
		if !ok || got != tt.want {
			t.Errorf("ResolveResourceType(%q) = %v, %v; want %v", tt.token, got, ok, tt.want)
		}
	}
	if _, ok := ResolveResourceType("Server"); ok {
		t.Error("resolution must be case sensitive")
	}
}

func TestActionCodesAreCaseSensitive(t *testing.T) {
	r, _ := ResolveAction("r")
	R, _ := ResolveAction("R")
	if r != ActionRemove || R != ActionForceRemove {
		t.Errorf("r = %v, R = %v", r, R)
	}
	l, _ := ResolveAction("l")
	L, _ := ResolveAction("L")
	if l != ActionList || L != ActionListDetail {
		t.Errorf("l = %v, L = %v", l, L)
	}
}

// A short code of one value must never equal the full name of another
// value of the same enum, otherwise short-first resolution would shadow it.
func TestNoShadowingWithinEnum(t *testing.T) {
	check := func(kind string, spellings map[int]names) {
		short := make(map[string]int)
		for v, n := range spellings {
			short[n.short] = v
		}
		for v, n := range spellings {
			if other, ok := short[n.full]; ok && other != v {
				t.Errorf("%s: full name %q of %d shadowed by short code of %d", kind, n.full, v, other)
			}
		}
	}

	rt := make(map[int]names)
	for k, v := range resourceNames {
		rt[int(k)] = v
	}
	check("resource type", rt)

	ps := make(map[int]names)
	for k, v := range paramNames {
		ps[int(k)] = v
	}
	check("param", ps)

	fs := make(map[int]names)
	for k, v := range flagNames {
		fs[int(k)] = v
	}
	check("flag", fs)
}

func TestEveryResourceTypeHasNames(t *testing.T) {
	types := ResourceTypes()
	if len(types) != 29 {
		t.Fatalf("ResourceTypes() returned %d types", len(types))
	}
	for _, rt := range types {
		if rt.Short() == "" || rt.Full() == "" {
			t.Errorf("type %d has no names", rt)
		}
		if got, ok := ResolveResourceType(rt.Full()); !ok || got != rt {
			t.Errorf("full name %q does not resolve to itself", rt.Full())
		}
	}
}

func TestCommandString(t *testing.T) {
	var flags FlagSet
	flags.Add(FlagDenyNonBackend)
	flags.Add(FlagNoIPv4)

	cmd := &Command{
		Action:       ActionAdd,
		Resource:     &Resource{Type: TypeServer, Alias: "sv1"},
		Preposition:  PrepTo,
		PrepResource: &Resource{Type: TypeServerGroup, Alias: "sg1"},
		Flags:        flags,
		Params:       NewParams(ParamWeight, "10", ParamAddress, "127.0.0.1:80"),
	}

	want := "add server sv1 to server-group sg1 no-ipv4 deny-non-backend weight 10 address 127.0.0.1:80"
	if got := cmd.String(); got != want {
		t.Errorf("String() =\n%q\nwant\n%q", got, want)
	}
}

func TestResourceChainString(t *testing.T) {
	arp := &Resource{
		Type: TypeArp,
		Parent: &Resource{
			Type: TypeVPC, Alias: "1314",
			Parent: &Resource{Type: TypeSwitch, Alias: "sw0"},
		},
	}
	if got := arp.String(); got != "arp in vpc 1314 in switch sw0" {
		t.Errorf("String() = %q", got)
	}
	if arp.Depth() != 3 {
		t.Errorf("Depth() = %d", arp.Depth())
	}
	if arp.Parent.Label() != "vpc 1314" {
		t.Errorf("Label() = %q", arp.Parent.Label())
	}
}

func TestTarget(t *testing.T) {
	parent := &Resource{Type: TypeEventLoopGroup, Alias: "elg1"}
	inChain := &Command{Action: ActionAdd, Resource: &Resource{Type: TypeEventLoop, Alias: "el1", Parent: parent}}
	if inChain.Target() != parent {
		t.Error("Target() should prefer the parent chain")
	}

	prep := &Resource{Type: TypeServerGroup, Alias: "sg1"}
	viaPrep := &Command{Action: ActionAdd, Resource: &Resource{Type: TypeServer, Alias: "s"}, Preposition: PrepTo, PrepResource: prep}
	if viaPrep.Target() != prep {
		t.Error("Target() should fall back to the preposition resource")
	}

	top := &Command{Action: ActionList, Resource: &Resource{Type: TypeUpstream}}
	if top.Target() != nil {
		t.Error("Target() of a top-level list should be nil")
	}
}

func TestParams(t *testing.T) {
	var p Params
	if !p.Set(ParamWeight, "1") {
		t.Fatal("first Set() should succeed")
	}
	if p.Set(ParamWeight, "2") {
		t.Error("duplicate Set() should fail")
	}
	if v, _ := p.Get(ParamWeight); v != "1" {
		t.Errorf("Get() = %q", v)
	}

	a := NewParams(ParamUp, "2", ParamDown, "3")
	b := NewParams(ParamDown, "3", ParamUp, "2")
	if !a.Equal(b) {
		t.Error("Equal() should ignore order")
	}
	if a.Keys()[0] != ParamUp {
		t.Error("Keys() should keep insertion order")
	}

	var empty FlagSet
	if !empty.Equal(FlagSet{}) {
		t.Error("nil and empty flag sets should be equal")
	}
}
