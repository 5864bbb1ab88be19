// Package weberr decorates errors with what the HTTP layer needs: the body and
// status to answer with and extra fields for the request log.
package weberr

type Opt func(error) error

// Wrap applies opts in order, so the last option ends up outermost. A nil
// error stays nil.
func Wrap(err error, opts ...Opt) error {
	if err == nil {
		return nil
	}
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

func WithResponse(body interface{}, status int) Opt {
	return func(err error) error {
		return &withResponse{error: err, body: body, status: status}
	}
}

// WithFields copies fields, so callers may reuse the map.
func WithFields(fields map[string]interface{}) Opt {
	cp := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return func(err error) error {
		return &withFields{error: err, fields: cp}
	}
}
