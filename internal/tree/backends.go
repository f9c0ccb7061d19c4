package tree

import (
	mdwerror "github.com/msto63/netplane/foundation/core/error"
	"github.com/msto63/netplane/foundation/rcl/ast"
	"github.com/msto63/netplane/foundation/rcl/registry"
)

// ---- event-loop-group / event-loop

func (t *Tree) createELG(name string) error {
	if !t.elgs.add(name, &EventLoopGroup{Name: name, Loops: newStore[*EventLoop]()}) {
		return mdwerror.AlreadyExists(ast.TypeEventLoopGroup.Full(), name)
	}
	return nil
}

func (t *Tree) removeELG(name string, graceful bool) error {
	g, err := t.elg(name)
	if err != nil {
		return err
	}
	if g.builtin {
		return builtinErr(ast.TypeEventLoopGroup, name)
	}
	if err := t.checkUnused(ast.TypeEventLoopGroup, name, graceful); err != nil {
		return err
	}
	t.elgs.remove(name)
	return nil
}

func (t *Tree) createEventLoop(name string, parent *ast.Resource) error {
	g, err := t.elg(parent.Alias)
	if err != nil {
		return err
	}
	if !g.Loops.add(name, &EventLoop{Name: name, Group: g.Name}) {
		return mdwerror.AlreadyExists(ast.TypeEventLoop.Full(), name)
	}
	return nil
}

func (t *Tree) removeEventLoop(name string, parent *ast.Resource) error {
	g, err := t.elg(parent.Alias)
	if err != nil {
		return err
	}
	if !g.Loops.remove(name) {
		return mdwerror.NotFound(ast.TypeEventLoop.Full(), name)
	}
	return nil
}

// ---- upstream

func (t *Tree) createUpstream(name string) error {
	if !t.upstreams.add(name, &Upstream{Name: name, Groups: newStore[*Attachment]()}) {
		return mdwerror.AlreadyExists(ast.TypeUpstream.Full(), name)
	}
	return nil
}

func (t *Tree) removeUpstream(name string, graceful bool) error {
	if _, err := t.upstream(name); err != nil {
		return err
	}
	if err := t.checkUnused(ast.TypeUpstream, name, graceful); err != nil {
		return err
	}
	t.upstreams.remove(name)
	return nil
}

// ---- server-group

func (t *Tree) createServerGroup(name string, params ast.Params) error {
	if t.serverGroups.has(name) {
		return mdwerror.AlreadyExists(ast.TypeServerGroup.Full(), name)
	}
	g := &ServerGroup{
		Name:   name,
		Method: strParam(params, ast.ParamMethod, "wrr"),
		HealthCheck: HealthCheck{
			Timeout: intParam(params, ast.ParamTimeout, DefaultHealthCheck.Timeout),
			Period:  intParam(params, ast.ParamPeriod, DefaultHealthCheck.Period),
			Up:      intParam(params, ast.ParamUp, DefaultHealthCheck.Up),
			Down:    intParam(params, ast.ParamDown, DefaultHealthCheck.Down),
		},
		EventLoopGroup: strParam(params, ast.ParamEventLoopGroup, DefaultWorkerELG),
		Annotations:    Annotations{},
		Servers:        newStore[*Server](),
	}
	if _, err := t.elg(g.EventLoopGroup); err != nil {
		return err
	}
	if v, ok := params.Get(ast.ParamAnnotations); ok {
		anno, err := registry.ParseAnnotations(v)
		if err != nil {
			return mdwerror.ParamValidation("invalid annotations: %v", err)
		}
		g.Annotations = anno
	}
	t.serverGroups.add(name, g)
	return nil
}

func (t *Tree) updateServerGroup(name string, params ast.Params) error {
	g, err := t.serverGroup(name)
	if err != nil {
		return err
	}
	var anno Annotations
	if v, ok := params.Get(ast.ParamAnnotations); ok {
		if anno, err = registry.ParseAnnotations(v); err != nil {
			return mdwerror.ParamValidation("invalid annotations: %v", err)
		}
	}
	g.Method = strParam(params, ast.ParamMethod, g.Method)
	if params.Has(ast.ParamTimeout) {
		g.HealthCheck = HealthCheck{
			Timeout: intParam(params, ast.ParamTimeout, g.HealthCheck.Timeout),
			Period:  intParam(params, ast.ParamPeriod, g.HealthCheck.Period),
			Up:      intParam(params, ast.ParamUp, g.HealthCheck.Up),
			Down:    intParam(params, ast.ParamDown, g.HealthCheck.Down),
		}
	}
	if anno != nil {
		g.Annotations = anno
	}
	return nil
}

func (t *Tree) removeServerGroup(name string, graceful bool) error {
	if _, err := t.serverGroup(name); err != nil {
		return err
	}
	if err := t.checkUnused(ast.TypeServerGroup, name, graceful); err != nil {
		return err
	}
	// A forced remove also detaches the group everywhere.
	for _, u := range t.upstreams.values() {
		u.Groups.remove(name)
	}
	t.serverGroups.remove(name)
	return nil
}

func (t *Tree) attachServerGroup(name string, parent *ast.Resource, params ast.Params) error {
	if _, err := t.serverGroup(name); err != nil {
		return err
	}
	ups, err := t.upstream(parent.Alias)
	if err != nil {
		return err
	}
	a := &Attachment{Group: name, Weight: intParam(params, ast.ParamWeight, 10), Annotations: Annotations{}}
	if v, ok := params.Get(ast.ParamAnnotations); ok {
		if a.Annotations, err = registry.ParseAnnotations(v); err != nil {
			return mdwerror.ParamValidation("invalid annotations: %v", err)
		}
	}
	if !ups.Groups.add(name, a) {
		return mdwerror.AlreadyExists(ast.TypeServerGroup.Full(), name+" in upstream "+ups.Name)
	}
	return nil
}

func (t *Tree) attachment(name string, parent *ast.Resource) (*Upstream, *Attachment, error) {
	ups, err := t.upstream(parent.Alias)
	if err != nil {
		return nil, nil, err
	}
	a, ok := ups.Groups.get(name)
	if !ok {
		return nil, nil, mdwerror.NotFound(ast.TypeServerGroup.Full(), name+" in upstream "+ups.Name)
	}
	return ups, a, nil
}

func (t *Tree) updateAttachment(name string, parent *ast.Resource, params ast.Params) error {
	_, a, err := t.attachment(name, parent)
	if err != nil {
		return err
	}
	if v, ok := params.Get(ast.ParamAnnotations); ok {
		anno, err := registry.ParseAnnotations(v)
		if err != nil {
			return mdwerror.ParamValidation("invalid annotations: %v", err)
		}
		a.Annotations = anno
	}
	a.Weight = intParam(params, ast.ParamWeight, a.Weight)
	return nil
}

func (t *Tree) detachServerGroup(name string, parent *ast.Resource) error {
	ups, _, err := t.attachment(name, parent)
	if err != nil {
		return err
	}
	ups.Groups.remove(name)
	return nil
}

// ---- server

func (t *Tree) createServer(name string, parent *ast.Resource, params ast.Params) error {
	g, err := t.serverGroup(parent.Alias)
	if err != nil {
		return err
	}
	s := &Server{
		Name:    name,
		Address: strParam(params, ast.ParamAddress, ""),
		Weight:  intParam(params, ast.ParamWeight, 0),
	}
	if !g.Servers.add(name, s) {
		return mdwerror.AlreadyExists(ast.TypeServer.Full(), name)
	}
	return nil
}

func (t *Tree) updateServer(name string, parent *ast.Resource, params ast.Params) error {
	g, err := t.serverGroup(parent.Alias)
	if err != nil {
		return err
	}
	s, ok := g.Servers.get(name)
	if !ok {
		return mdwerror.NotFound(ast.TypeServer.Full(), name)
	}
	s.Weight = intParam(params, ast.ParamWeight, s.Weight)
	return nil
}

func (t *Tree) removeServer(name string, parent *ast.Resource) error {
	g, err := t.serverGroup(parent.Alias)
	if err != nil {
		return err
	}
	if !g.Servers.remove(name) {
		return mdwerror.NotFound(ast.TypeServer.Full(), name)
	}
	return nil
}
