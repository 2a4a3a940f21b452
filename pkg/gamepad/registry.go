package gamepad

// Registry maps button bindings to actions that run on a rising edge.
// Each binding holds at most one action; registering it again replaces the
// action. Actions receive a context value of type C, typically the robot they
// act on.
//
// Actions must not depend on the order in which other actions run.
type Registry[C any] struct {
	entries []registryEntry[C]
}

type registryEntry[C any] struct {
	binding ButtonBinding
	action  func(C)
}

// Register binds action to b, replacing any action already bound to b.
func (r *Registry[C]) Register(b ButtonBinding, action func(C)) {
	for i := range r.entries {
		if r.entries[i].binding == b {
			r.entries[i].action = action
			return
		}
	}
	r.entries = append(r.entries, registryEntry[C]{binding: b, action: action})
}

// RegisterFunc binds an action that takes no context.
func (r *Registry[C]) RegisterFunc(b ButtonBinding, action func()) {
	r.Register(b, func(C) { action() })
}

// Unregister removes the action bound to b and reports whether there was one.
func (r *Registry[C]) Unregister(b ButtonBinding) bool {
	for i := range r.entries {
		if r.entries[i].binding == b {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of bound buttons.
func (r *Registry[C]) Len() int {
	return len(r.entries)
}

// Bindings returns the bound buttons.
func (r *Registry[C]) Bindings() []ButtonBinding {
	out := make([]ButtonBinding, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.binding
	}
	return out
}

// Dispatch runs the action of every binding that is on a rising edge in s
// and returns the bindings that fired.
func (r *Registry[C]) Dispatch(s *Snapshot, ctx C) []ButtonBinding {
	var fired []ButtonBinding
	for _, e := range r.entries {
		if e.binding.Edge(s) != RisingEdge {
			continue
		}
		e.action(ctx)
		fired = append(fired, e.binding)
	}
	return fired
}
