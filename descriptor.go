package pipeline

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-slark/pipeline/di"
	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/middleware"
)

// Constructors lists the candidate constructors of one middleware type. With explicit
// arguments the candidate taking next plus exactly that many arguments is chosen.
type Constructors []any

const (
	invokeMethod = "Invoke"
	handleMethod = "Handle"
)

var (
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	contextType  = reflect.TypeOf((*context.Context)(nil)).Elem()
	resolverType = reflect.TypeOf((*di.Resolver)(nil)).Elem()
	providerType = reflect.TypeOf((*di.Provider)(nil)).Elem()
)

// Descriptor is the validated shape of a middleware type: its constructor and the
// method the pipeline calls. It is immutable; the compiled invoker is cached on it.
type Descriptor struct {
	// Type is what the constructor returns.
	Type reflect.Type

	ctor         reflect.Value
	ctorParams   []reflect.Type // after next
	returnsError bool

	method      reflect.Method
	params      []reflect.Type // invoke parameters, receiver excluded
	needsLookup bool

	once sync.Once
	inv  any // invoker[C]
}

// Method is the name of the selected invoke method.
func (d *Descriptor) Method() string {
	return d.method.Name
}

// Params returns the constructor parameters that follow next.
func (d *Descriptor) Params() []reflect.Type {
	out := make([]reflect.Type, len(d.ctorParams))
	copy(out, d.ctorParams)
	return out
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s.%s", d.Type, d.method.Name)
}

// Describe validates ctor as the constructor (or Constructors list) of a middleware over
// context type C. arity is the number of explicit arguments the caller supplies after
// next, or negative when constructor parameters are resolved by lookup.
func Describe[C any](ctor any, arity int) (*Descriptor, error) {
	fn, err := selectConstructor[C](ctor, arity)
	if err != nil {
		return nil, err
	}
	ft := fn.Type()
	d := &Descriptor{
		Type:         ft.Out(0),
		ctor:         fn,
		ctorParams:   make([]reflect.Type, 0, ft.NumIn()-1),
		returnsError: ft.NumOut() == 2,
	}
	for i := 1; i < ft.NumIn(); i++ {
		d.ctorParams = append(d.ctorParams, ft.In(i))
	}
	if err = d.selectMethod(); err != nil {
		return nil, err
	}
	if err = d.checkParams(reflect.TypeOf((*C)(nil)).Elem()); err != nil {
		return nil, err
	}
	return d, nil
}

func selectConstructor[C any](ctor any, arity int) (reflect.Value, error) {
	var candidates []reflect.Value
	switch c := ctor.(type) {
	case nil:
	case Constructors:
		for _, x := range c {
			if v := reflect.ValueOf(x); v.Kind() == reflect.Func && !v.IsNil() {
				candidates = append(candidates, v)
			}
		}
	default:
		if v := reflect.ValueOf(c); v.Kind() == reflect.Func && !v.IsNil() {
			candidates = append(candidates, v)
		}
	}
	name := typeName(ctor)
	if len(candidates) == 0 {
		return reflect.Value{}, errors.Configuration(errors.NoConstructor, name, "",
			"no constructor function registered")
	}

	if arity >= 0 {
		matched := candidates[:0:0]
		for _, v := range candidates {
			if v.Type().NumIn() == arity+1 {
				matched = append(matched, v)
			}
		}
		if len(matched) == 0 {
			return reflect.Value{}, errors.Configuration(errors.NoCompatibleConstructor, name, "",
				fmt.Sprintf("no constructor takes next plus %d arguments", arity))
		}
		candidates = matched
	}
	if len(candidates) > 1 {
		return reflect.Value{}, errors.Configuration(errors.MultipleConstructors, name, "",
			fmt.Sprintf("%d eligible constructors", len(candidates)))
	}

	fn := candidates[0]
	ft := fn.Type()
	next := reflect.TypeOf(middleware.Handler[C](nil))
	switch {
	case ft.IsVariadic():
		return reflect.Value{}, errors.Configuration(errors.NoCompatibleConstructor, ft.String(), "",
			"variadic constructor")
	case ft.NumIn() == 0 || ft.In(0) != next:
		return reflect.Value{}, errors.Configuration(errors.NoCompatibleConstructor, ft.String(), "",
			fmt.Sprintf("first parameter must be %s", next))
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return reflect.Value{}, errors.Configuration(errors.NoCompatibleConstructor, ft.String(), "",
			"constructor must return the middleware and optionally an error")
	}
	return fn, nil
}

func (d *Descriptor) selectMethod() error {
	invoke, hasInvoke := d.Type.MethodByName(invokeMethod)
	handle, hasHandle := d.Type.MethodByName(handleMethod)
	switch {
	case hasInvoke && hasHandle:
		return errors.Configuration(errors.MultipleInvokeMethods, d.Type.String(), "",
			"both Invoke and Handle are declared")
	case hasInvoke:
		d.method = invoke
	case hasHandle:
		d.method = handle
	default:
		return errors.Configuration(errors.NoInvokeMethod, d.Type.String(), "",
			"no exported Invoke or Handle method")
	}

	mt := d.method.Type
	first := 1
	if d.Type.Kind() == reflect.Interface {
		first = 0
	}
	for i := first; i < mt.NumIn(); i++ {
		d.params = append(d.params, mt.In(i))
	}
	return nil
}

func (d *Descriptor) checkParams(c reflect.Type) error {
	name, member := d.Type.String(), d.method.Name
	mt := d.method.Type
	if mt.NumOut() != 1 || mt.Out(0) != errorType {
		return errors.Configuration(errors.InvokeMethodWrongReturnType, name, member,
			"invoke method must return exactly error")
	}

	found := false
	for _, p := range d.params {
		if p == c {
			found = true
			break
		}
	}
	if !found {
		return errors.Configuration(errors.InvokeMethodMissingContextParameter, name, member,
			fmt.Sprintf("no parameter of type %s", c))
	}

	for _, p := range d.params {
		if p != c && isByRef(p, c) {
			return errors.Configuration(errors.ByRefParameterNotSupported, name, member,
				fmt.Sprintf("parameter of type %s", p))
		}
	}
	if mt.IsVariadic() {
		return errors.Configuration(errors.VariadicParameterNotSupported, name, member,
			"variadic invoke method")
	}

	for _, p := range d.params {
		if p != c && p != contextType {
			d.needsLookup = true
			break
		}
	}
	if d.needsLookup && !c.Implements(providerType) {
		return errors.Configuration(errors.ContextNotServiceProvider, name, member,
			fmt.Sprintf("%s does not implement di.Provider", c))
	}
	return nil
}

// isByRef reports pointers used as out parameters: to the context, to a pointer
// or to an interface.
func isByRef(p, c reflect.Type) bool {
	if p.Kind() != reflect.Pointer {
		return false
	}
	e := p.Elem()
	return e == c || e.Kind() == reflect.Pointer || e.Kind() == reflect.Interface
}

func typeName(v any) string {
	switch c := v.(type) {
	case nil:
		return "<nil>"
	case Constructors:
		for _, x := range c {
			if t := reflect.TypeOf(x); t != nil && t.Kind() == reflect.Func && t.NumOut() > 0 {
				return t.Out(0).String()
			}
		}
		return "pipeline.Constructors"
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Func && t.NumOut() > 0 {
		return t.Out(0).String()
	}
	return t.String()
}
