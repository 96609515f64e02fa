package reducer

// Debug selects which matched actions a reducer traces.
type Debug struct {
	all   bool
	names map[string]struct{}
}

// DebugOff disables tracing.
func DebugOff() Debug {
	return Debug{}
}

// DebugAll traces every matched action.
func DebugAll() Debug {
	return Debug{all: true}
}

// DebugActions traces only the listed logical names.
func DebugActions(names ...string) Debug {
	if len(names) == 0 {
		return Debug{}
	}
	d := Debug{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		d.names[n] = struct{}{}
	}
	return d
}

// Enabled reports whether the logical name is traced.
func (d Debug) Enabled(name string) bool {
	if d.all {
		return true
	}
	_, ok := d.names[name]
	return ok
}
