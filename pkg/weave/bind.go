package weave

import (
	"math"
	"reflect"
)

// BindVariableInterceptor copies the index and value passed to a bind setter
// into the target's bind value map
type BindVariableInterceptor struct{}

// NewBindVariableInterceptor creates the interceptor bound to bind setters
func NewBindVariableInterceptor() *BindVariableInterceptor {
	return &BindVariableInterceptor{}
}

// Name implements Interceptor
func (b *BindVariableInterceptor) Name() string {
	return "bind-variable"
}

// Before records Args[1] under the integer index in Args[0]. Null setters
// and setters without a value argument record nil.
func (b *BindVariableInterceptor) Before(inv *Invocation) {
	carrier, ok := inv.Target.(BindValueCarrier)
	if !ok || len(inv.Args) == 0 {
		return
	}
	values := carrier.TraceBindValues()
	if values == nil {
		return
	}
	index, ok := bindIndex(inv.Args[0])
	if !ok {
		return
	}

	var value any
	if len(inv.Args) > 1 && !IsNullSetter(inv.Method) {
		value = inv.Args[1]
	}
	values.Set(index, value)
}

// NullSetter is the setter that binds SQL NULL for a parameter index
const NullSetter = "SetNull"

// IsNullSetter reports whether method binds SQL NULL
func IsNullSetter(method string) bool {
	return method == NullSetter
}

func bindIndex(arg any) (int, bool) {
	v := reflect.ValueOf(arg)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt {
			return 0, false
		}
		return int(u), true
	default:
		return 0, false
	}
}

// BindClearInterceptor empties the bind value map once a clear call succeeds
type BindClearInterceptor struct{}

// NewBindClearInterceptor creates the interceptor bound to ClearParameters
func NewBindClearInterceptor() *BindClearInterceptor {
	return &BindClearInterceptor{}
}

// Name implements Interceptor
func (c *BindClearInterceptor) Name() string {
	return "bind-clear"
}

// After clears the map unless the call returned an error
func (c *BindClearInterceptor) After(inv *Invocation) {
	if inv.Err() != nil {
		return
	}
	if carrier, ok := inv.Target.(BindValueCarrier); ok {
		if values := carrier.TraceBindValues(); values != nil {
			values.Clear()
		}
	}
}
