package node

import (
	"reflect"

	"golang.org/x/xerrors"
)

// reflectInjector is a dependency injector that uses reflection to resolve
// specific interfaces. The dependencies are kept in the injection order so
// that the resolution is deterministic when several are compatible.
//
// - implements node.Injector
type reflectInjector struct {
	deps []interface{}
}

// NewInjector returns a empty injector.
func NewInjector() Injector {
	return &reflectInjector{}
}

// Resolve implements node.Injector. It populates the given pointer with the
// dependency of the exact same type if any, otherwise with the first
// compatible one.
func (inj *reflectInjector) Resolve(v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return xerrors.New("expect a pointer")
	}

	if !rv.Elem().IsValid() {
		return xerrors.Errorf("reflect value '%v' is invalid", rv)
	}

	target := rv.Elem().Type()

	var candidate interface{}

	for _, dep := range inj.deps {
		typ := reflect.TypeOf(dep)

		if typ == target {
			candidate = dep
			break
		}

		if candidate == nil && typ.AssignableTo(target) {
			candidate = dep
		}
	}

	if candidate == nil {
		return xerrors.Errorf("couldn't find dependency for '%v'", target)
	}

	rv.Elem().Set(reflect.ValueOf(candidate))

	return nil
}

// Inject implements node.Injector. It injects the dependency to be available
// later on. A dependency of the same type replaces the previous one.
func (inj *reflectInjector) Inject(v interface{}) {
	if v == nil {
		return
	}

	typ := reflect.TypeOf(v)

	for i, dep := range inj.deps {
		if reflect.TypeOf(dep) == typ {
			inj.deps[i] = v
			return
		}
	}

	inj.deps = append(inj.deps, v)
}
