package weberr

import "errors"

type withResponse struct {
	error
	body   interface{}
	status int
}

func (e *withResponse) Unwrap() error { return e.error }

// Response returns the outermost body and status attached to err.
func Response(err error) (body interface{}, status int, ok bool) {
	var r *withResponse
	if !errors.As(err, &r) {
		return nil, 0, false
	}
	return r.body, r.status, true
}
