package dedupe

type options struct {
	sizeHint int
}

// Option configures a deduper.
type Option func(*options)

// WithSizeHint preallocates room for n ids.
func WithSizeHint(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sizeHint = n
		}
	}
}
