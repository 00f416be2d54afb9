package internal

import "reflect"

// Walker is implemented by reactive containers.
// Walk reads every child through its tracked accessor and passes it to visit.
type Walker interface {
	Walk(visit func(any))
}

type seenKey struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// Traverse visits everything reachable from v, so that an active observer
// depends on every nested reactive cell. Each container is visited once.
func Traverse(v any) {
	if v == nil {
		return
	}

	traverse(reflect.ValueOf(v), make(map[seenKey]struct{}))
}

func traverse(rv reflect.Value, seen map[seenKey]struct{}) {
	if !rv.IsValid() {
		return
	}

	if rv.CanInterface() {
		if w, ok := rv.Interface().(Walker); ok {
			if rv.Kind() == reflect.Pointer {
				if rv.IsNil() || visited(rv, seen) {
					return
				}
			}

			w.Walk(func(child any) {
				if child != nil {
					traverse(reflect.ValueOf(child), seen)
				}
			})
			return
		}
	}

	switch rv.Kind() {
	case reflect.Interface:
		if !rv.IsNil() {
			traverse(rv.Elem(), seen)
		}

	case reflect.Pointer:
		if rv.IsNil() || visited(rv, seen) {
			return
		}
		traverse(rv.Elem(), seen)

	case reflect.Slice:
		if rv.IsNil() || visited(rv, seen) {
			return
		}
		for i := range rv.Len() {
			traverse(rv.Index(i), seen)
		}

	case reflect.Array:
		for i := range rv.Len() {
			traverse(rv.Index(i), seen)
		}

	case reflect.Map:
		if rv.IsNil() || visited(rv, seen) {
			return
		}
		iter := rv.MapRange()
		for iter.Next() {
			traverse(iter.Value(), seen)
		}

	case reflect.Struct:
		for i := range rv.NumField() {
			if rv.Type().Field(i).IsExported() {
				traverse(rv.Field(i), seen)
			}
		}
	}
}

func visited(rv reflect.Value, seen map[seenKey]struct{}) bool {
	key := seenKey{typ: rv.Type(), ptr: rv.Pointer()}
	if rv.Kind() == reflect.Slice {
		key.len = rv.Len()
	}

	if _, ok := seen[key]; ok {
		return true
	}

	seen[key] = struct{}{}
	return false
}
