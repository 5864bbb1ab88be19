package weberr

import "errors"

type withFields struct {
	error
	fields map[string]interface{}
}

func (e *withFields) Unwrap() error { return e.error }

// Fields merges the log fields attached anywhere in err's chain. When two
// layers set the same key the outer one wins.
func Fields(err error) (map[string]interface{}, bool) {
	var layers []map[string]interface{}
	for ; err != nil; err = errors.Unwrap(err) {
		if f, ok := err.(*withFields); ok {
			layers = append(layers, f.fields)
		}
	}
	if len(layers) == 0 {
		return nil, false
	}

	out := make(map[string]interface{})
	for i := len(layers) - 1; i >= 0; i-- {
		for k, v := range layers[i] {
			out[k] = v
		}
	}
	return out, true
}
