package module

import "sync"

// ports published while mounting, keyed by module name; main reads them back
var registry sync.Map

// Register publishes ports under name, replacing any earlier value
func Register(name string, ports any) { registry.Store(name, ports) }

// PortsAs looks up name and asserts its ports to T
func PortsAs[T any](name string) (T, bool) {
	var zero T
	v, ok := registry.Load(name)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Reset forgets every registration
func Reset() { registry.Clear() }
