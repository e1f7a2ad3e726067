package excelmap

import (
	"fmt"
	"reflect"
	"strings"
)

// accessor reads one column value from a row.
type accessor func(row reflect.Value) (interface{}, error)

// step resolves one segment of an attribute path. An invalid result value
// means a nil link in the path.
type step func(v reflect.Value) (reflect.Value, error)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// bindAccessor picks the accessor of spec for rows of type t. Fields of the
// scanned type are read by index; everything else goes through a compiled path.
func bindAccessor(spec *FieldSpec, scanned, t reflect.Type) accessor {
	if spec.Attr != "" {
		return pathAccessor(t, strings.Split(spec.Attr, "."))
	}
	if spec.method {
		return methodAccessor(spec.member)
	}
	if scanned != nil && t != nil && derefType(t) == scanned && spec.index != nil {
		return fieldAccessor(spec.index)
	}
	return pathAccessor(t, []string{spec.member})
}

func fieldAccessor(index []int) accessor {
	return func(v reflect.Value) (interface{}, error) {
		v = indirect(v)
		if !v.IsValid() {
			return nil, fmt.Errorf("%w: nil row", ErrResolution)
		}
		fv, err := v.FieldByIndexErr(index)
		if err != nil {
			// nil embedded pointer
			return nil, nil
		}
		return interfaceOf(fv)
	}
}

func methodAccessor(name string) accessor {
	return func(v reflect.Value) (interface{}, error) {
		m, err := methodValue(v, name)
		if err != nil {
			return nil, err
		}
		out, err := callGetter(m)
		if err != nil {
			return nil, err
		}
		return interfaceOf(out)
	}
}

func failingAccessor(err error) accessor {
	return func(reflect.Value) (interface{}, error) {
		return nil, err
	}
}

// pathAccessor compiles a dotted attribute path against t. Segments are matched
// case-insensitively against Get<Name> methods, <Name> methods, struct fields
// and string map keys, in that order. Interface typed links are resolved per row.
func pathAccessor(t reflect.Type, segs []string) accessor {
	steps := make([]step, 0, len(segs))
	cur := t
	for _, seg := range segs {
		st, next, err := compileStep(cur, seg)
		if err != nil {
			return failingAccessor(err)
		}
		steps = append(steps, st)
		cur = next
	}

	return func(v reflect.Value) (interface{}, error) {
		if !indirect(v).IsValid() {
			return nil, fmt.Errorf("%w: nil row", ErrResolution)
		}
		var err error
		for _, st := range steps {
			if v, err = st(v); err != nil {
				return nil, err
			}
			if !v.IsValid() {
				return nil, nil
			}
		}
		return interfaceOf(v)
	}
}

func compileStep(t reflect.Type, seg string) (step, reflect.Type, error) {
	if t == nil || derefType(t).Kind() == reflect.Interface {
		return dynamicStep(seg), nil, nil
	}
	base := derefType(t)
	pt := reflect.PointerTo(base)

	if m, ok := findGetter(pt, seg); ok {
		name := m.Name
		return func(v reflect.Value) (reflect.Value, error) {
			v = indirect(v)
			if !v.IsValid() {
				return v, nil
			}
			mv, err := methodValue(v, name)
			if err != nil {
				return reflect.Value{}, err
			}
			return callGetter(mv)
		}, m.Type.Out(0), nil
	}

	switch base.Kind() {
	case reflect.Struct:
		sf, ok := base.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, seg) })
		if ok && sf.IsExported() {
			index := sf.Index
			return func(v reflect.Value) (reflect.Value, error) {
				v = indirect(v)
				if !v.IsValid() {
					return v, nil
				}
				fv, err := v.FieldByIndexErr(index)
				if err != nil {
					return reflect.Value{}, nil
				}
				return fv, nil
			}, sf.Type, nil
		}
	case reflect.Map:
		if base.Key().Kind() == reflect.String {
			keyType := base.Key()
			return func(v reflect.Value) (reflect.Value, error) {
				v = indirect(v)
				if !v.IsValid() || v.IsNil() {
					return reflect.Value{}, nil
				}
				if mv := v.MapIndex(reflect.ValueOf(seg).Convert(keyType)); mv.IsValid() {
					return mv, nil
				}
				iter := v.MapRange()
				for iter.Next() {
					if strings.EqualFold(iter.Key().String(), seg) {
						return iter.Value(), nil
					}
				}
				return reflect.Value{}, fmt.Errorf("%w: key %q not found", ErrResolution, seg)
			}, base.Elem(), nil
		}
	}

	return nil, nil, fmt.Errorf("%w: %s has no attribute %q", ErrResolution, base, seg)
}

// dynamicStep resolves seg against the concrete type of each value.
func dynamicStep(seg string) step {
	cache := make(map[reflect.Type]step)
	return func(v reflect.Value) (reflect.Value, error) {
		v = indirect(v)
		if !v.IsValid() {
			return v, nil
		}
		st, ok := cache[v.Type()]
		if !ok {
			var err error
			if st, _, err = compileStep(v.Type(), seg); err != nil {
				return reflect.Value{}, err
			}
			cache[v.Type()] = st
		}
		return st(v)
	}
}

// findGetter looks up Get<seg> first, then <seg>, ignoring case.
func findGetter(pt reflect.Type, seg string) (reflect.Method, bool) {
	for _, name := range []string{"Get" + seg, seg} {
		for i := 0; i < pt.NumMethod(); i++ {
			m := pt.Method(i)
			if strings.EqualFold(m.Name, name) && isGetter(m.Type) {
				return m, true
			}
		}
	}
	return reflect.Method{}, false
}

// isGetter reports whether mt (receiver included) takes no arguments and
// returns a value or a value and an error.
func isGetter(mt reflect.Type) bool {
	if mt.NumIn() != 1 {
		return false
	}
	switch mt.NumOut() {
	case 1:
		return true
	case 2:
		return mt.Out(1) == errorType
	}
	return false
}

// methodValue returns the bound method name of v, taking the address of v when
// the method has a pointer receiver.
func methodValue(v reflect.Value, name string) (reflect.Value, error) {
	for v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if !v.IsValid() || (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: nil row", ErrResolution)
	}
	if m := v.MethodByName(name); m.IsValid() {
		return m, nil
	}
	v = indirect(v)
	if !v.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: nil row", ErrResolution)
	}
	var p reflect.Value
	if v.CanAddr() {
		p = v.Addr()
	} else {
		p = reflect.New(v.Type())
		p.Elem().Set(v)
	}
	if m := p.MethodByName(name); m.IsValid() {
		return m, nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s has no method %s", ErrResolution, v.Type(), name)
}

func callGetter(m reflect.Value) (out reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrResolution, r)
		}
	}()
	res := m.Call(nil)
	if len(res) == 2 && !res[1].IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrResolution, res[1].Interface())
	}
	return res[0], nil
}

func interfaceOf(v reflect.Value) (interface{}, error) {
	if !v.IsValid() {
		return nil, nil
	}
	if !v.CanInterface() {
		return nil, fmt.Errorf("%w: unexported value", ErrResolution)
	}
	return v.Interface(), nil
}

// indirect follows pointers and interfaces; nil links yield an invalid value.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
