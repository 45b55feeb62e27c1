package depository

import "reflect"

// clone returns a structural deep copy of v. The result only ever holds
// map[string]any and []any containers: typed slices and arrays become []any
// and maps with string keys become map[string]any, recursively. []byte and
// every other value are scalars. Functions, channels, pointers and cyclic
// values are not supported.
func clone(v any) any {
	switch n := v.(type) {
	case nil:
		return nil
	case map[string]any:
		if n == nil {
			return n
		}
		out := make(map[string]any, len(n))
		for k, child := range n {
			out[k] = clone(child)
		}
		return out
	case []any:
		if n == nil {
			return n
		}
		out := make([]any, len(n))
		for i, child := range n {
			out[i] = clone(child)
		}
		return out
	case []byte:
		if n == nil {
			return n
		}
		return append([]byte(nil), n...)
	case string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return v
	}
	return cloneReflect(reflect.ValueOf(v))
}

func cloneReflect(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return []any(nil)
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = clone(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return rv.Interface()
		}
		if rv.IsNil() {
			return map[string]any(nil)
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = clone(iter.Value().Interface())
		}
		return out
	default:
		return rv.Interface()
	}
}

// newContainer returns the container a missing node becomes when seg is
// used to index into it.
func newContainer(seg string) any {
	if isIndex(seg) {
		return []any{}
	}
	return map[string]any{}
}
