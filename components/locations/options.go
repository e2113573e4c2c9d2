package locations

import "net/http"

type EmptySearchMode string

const (
	EmptySearchNone EmptySearchMode = "none"
	EmptySearchTop  EmptySearchMode = "top"
)

// GuardFunc may reject a request before it is served.
type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath       string
	SearchParam     string
	LimitParam      string
	DefaultLimit    int
	MaxLimit        int
	EmptySearchMode EmptySearchMode
	Guard           GuardFunc

	Places []Place
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:       "/locations",
		SearchParam:     "q",
		LimitParam:      "limit",
		DefaultLimit:    10,
		MaxLimit:        50,
		EmptySearchMode: EmptySearchNone,
	}
}

// NewOptions applies fns over the defaults and restores any zeroed field.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	def := DefaultOptions()
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = def.DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = def.MaxLimit
	}
	if opts.EmptySearchMode == "" {
		opts.EmptySearchMode = def.EmptySearchMode
	}
	if opts.RoutePath == "" {
		opts.RoutePath = def.RoutePath
	}
	if opts.SearchParam == "" {
		opts.SearchParam = def.SearchParam
	}
	if opts.LimitParam == "" {
		opts.LimitParam = def.LimitParam
	}
	if opts.Places != nil {
		opts.Places = append([]Place{}, opts.Places...)
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) { o.RoutePath = path }
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) { o.MaxLimit = limit }
}

func WithEmptySearchMode(mode EmptySearchMode) OptionFn {
	return func(o *Options) { o.EmptySearchMode = mode }
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) { o.Guard = guard }
}

// WithPlaces replaces the embedded list.
func WithPlaces(places []Place) OptionFn {
	return func(o *Options) {
		if places == nil {
			o.Places = nil
			return
		}
		o.Places = append([]Place{}, places...)
	}
}

func clampLimit(limit int, opts Options) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
