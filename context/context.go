// Package context defines InterfaceContext, sioba's URI-derivable
// configuration record. A Context field that was never supplied by any
// layer of the merge (built-in defaults, type defaults, caller options, URI
// query) stays nil; every other field is address-of-value. This models the
// Python original's "UNSET vs null vs value" tri-state with the simplfying
// observation that, past the final merge step, sioba itself never
// distinguishes "never set" from "explicitly null" — both read as nil.
package context

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Context is sioba's configuration record, built from a URI plus overrides.
type Context struct {
	URI      *string
	Scheme   *string
	Netloc   *string
	Host     *string
	Port     *int
	Username *string
	Password *string
	Path     *string
	Params   *string
	Query    map[string][]string

	Rows       *int
	Cols       *int
	Title      *string
	Encoding   *string
	ConvertEol *bool
	LocalEcho  *bool

	ScrollbackBufferURI  *string
	ScrollbackBufferSize *int

	AutoShutdown *bool

	CursorRow *int
	CursorCol *int

	ExtraParams map[string]any
}

func New() *Context {
	return &Context{
		Query:       map[string][]string{},
		ExtraParams: map[string]any{},
	}
}

// Defaults returns the built-in default Context (ground: context.py's
// DefaultValuesContext subclass).
func Defaults() *Context {
	c := New()
	c.Rows = intp(24)
	c.Cols = intp(80)
	c.Title = strp("")
	c.CursorRow = intp(0)
	c.CursorCol = intp(0)
	c.ScrollbackBufferURI = strp("terminal://")
	c.ScrollbackBufferSize = intp(10_000)
	c.Encoding = strp("utf-8")
	c.LocalEcho = boolp(false)
	c.ConvertEol = boolp(true)
	c.AutoShutdown = boolp(true)
	return c
}

// Option mutates a Context; used as the caller-override layer of the merge.
type Option func(*Context)

func WithRows(rows int) Option       { return func(c *Context) { c.Rows = &rows } }
func WithCols(cols int) Option       { return func(c *Context) { c.Cols = &cols } }
func WithTitle(title string) Option  { return func(c *Context) { c.Title = &title } }
func WithEncoding(enc string) Option { return func(c *Context) { c.Encoding = &enc } }
func WithConvertEol(b bool) Option   { return func(c *Context) { c.ConvertEol = &b } }
func WithLocalEcho(b bool) Option    { return func(c *Context) { c.LocalEcho = &b } }
func WithAutoShutdown(b bool) Option { return func(c *Context) { c.AutoShutdown = &b } }
func WithExtra(key string, val any) Option {
	return func(c *Context) {
		if c.ExtraParams == nil {
			c.ExtraParams = map[string]any{}
		}
		c.ExtraParams[key] = val
	}
}

// WithDefaults merges, in order: built-in defaults, options (typically a
// class/scheme-level default Context), then the supplied overrides.
func WithDefaults(options *Context, overrides ...Option) *Context {
	c := Defaults()
	if options != nil {
		c.Update(options)
	}
	for _, o := range overrides {
		o(c)
	}
	return c
}

// FromURI parses uri into scheme/host/port/user/pass/path/query, coerces any
// query parameter whose key names a Context field into that field, and then
// applies WithDefaults semantics.
func FromURI(uri string, defaults *Context, overrides ...Option) (*Context, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("sioba/context: parsing uri %q: %w", uri, err)
	}

	query := map[string][]string(parsed.Query())

	c := New()
	c.URI = strp(uri)
	c.Scheme = strp(parsed.Scheme)
	c.Netloc = strp(parsed.Host)
	c.Path = strp(parsed.Path)
	if h := parsed.Hostname(); h != "" {
		c.Host = strp(h)
	}
	if p := parsed.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			c.Port = &n
		}
	}
	if parsed.User != nil {
		u := parsed.User.Username()
		c.Username = &u
		if pw, ok := parsed.User.Password(); ok {
			c.Password = &pw
		}
	}
	c.Query = query

	if err := applyQueryFields(c, query); err != nil {
		return nil, err
	}

	return WithDefaults(prepend(defaults, c), overrides...), nil
}

// prepend folds the URI-derived context on top of defaults, returning a
// single Context to hand to WithDefaults as its "options" layer.
func prepend(defaults, fromURI *Context) *Context {
	merged := New()
	if defaults != nil {
		merged.Update(defaults)
	}
	merged.Update(fromURI)
	return merged
}

// applyQueryFields coerces query string values onto the matching Context
// field by name, per the declared type of that field (int/float/bool/str).
// Unmatched keys stay only in Query.
func applyQueryFields(c *Context, query map[string][]string) error {
	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		raw := values[0]
		switch key {
		case "rows":
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("sioba/context: rows=%q: %w", raw, err)
			}
			c.Rows = &n
		case "cols":
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("sioba/context: cols=%q: %w", raw, err)
			}
			c.Cols = &n
		case "title":
			c.Title = &raw
		case "encoding":
			c.Encoding = &raw
		case "convertEol":
			c.ConvertEol = boolp(truthy(raw))
		case "local_echo":
			c.LocalEcho = boolp(truthy(raw))
		case "auto_shutdown":
			c.AutoShutdown = boolp(truthy(raw))
		case "scrollback_buffer_uri":
			c.ScrollbackBufferURI = &raw
		case "scrollback_buffer_size":
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("sioba/context: scrollback_buffer_size=%q: %w", raw, err)
			}
			c.ScrollbackBufferSize = &n
		case "cursor_row":
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("sioba/context: cursor_row=%q: %w", raw, err)
			}
			c.CursorRow = &n
		case "cursor_col":
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("sioba/context: cursor_col=%q: %w", raw, err)
			}
			c.CursorCol = &n
		}
	}
	return nil
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// Update overwrites every field of c that other sets (non-nil), leaving c's
// existing value in place for anything other leaves unset.
func (c *Context) Update(other *Context) *Context {
	if other == nil {
		return c
	}
	if other.URI != nil {
		c.URI = other.URI
	}
	if other.Scheme != nil {
		c.Scheme = other.Scheme
	}
	if other.Netloc != nil {
		c.Netloc = other.Netloc
	}
	if other.Host != nil {
		c.Host = other.Host
	}
	if other.Port != nil {
		c.Port = other.Port
	}
	if other.Username != nil {
		c.Username = other.Username
	}
	if other.Password != nil {
		c.Password = other.Password
	}
	if other.Path != nil {
		c.Path = other.Path
	}
	if other.Params != nil {
		c.Params = other.Params
	}
	if len(other.Query) > 0 {
		if c.Query == nil {
			c.Query = map[string][]string{}
		}
		for k, v := range other.Query {
			c.Query[k] = v
		}
	}
	if other.Rows != nil {
		c.Rows = other.Rows
	}
	if other.Cols != nil {
		c.Cols = other.Cols
	}
	if other.Title != nil {
		c.Title = other.Title
	}
	if other.Encoding != nil {
		c.Encoding = other.Encoding
	}
	if other.ConvertEol != nil {
		c.ConvertEol = other.ConvertEol
	}
	if other.LocalEcho != nil {
		c.LocalEcho = other.LocalEcho
	}
	if other.ScrollbackBufferURI != nil {
		c.ScrollbackBufferURI = other.ScrollbackBufferURI
	}
	if other.ScrollbackBufferSize != nil {
		c.ScrollbackBufferSize = other.ScrollbackBufferSize
	}
	if other.AutoShutdown != nil {
		c.AutoShutdown = other.AutoShutdown
	}
	if other.CursorRow != nil {
		c.CursorRow = other.CursorRow
	}
	if other.CursorCol != nil {
		c.CursorCol = other.CursorCol
	}
	if len(other.ExtraParams) > 0 {
		if c.ExtraParams == nil {
			c.ExtraParams = map[string]any{}
		}
		for k, v := range other.ExtraParams {
			c.ExtraParams[k] = v
		}
	}
	return c
}

// FillMissing sets only the fields of c that are currently nil, from
// defaults.
func (c *Context) FillMissing(defaults *Context) *Context {
	if defaults == nil {
		return c
	}
	tmp := New()
	tmp.Update(c)
	tmp.Update(defaults)
	// tmp now has defaults' values wherever c was nil, and c's otherwise,
	// except Update favors the latter argument - so do it in two passes.
	result := New()
	result.Update(defaults)
	result.Update(c)
	*c = *result
	return c
}

// Copy returns a deep copy (maps are copied; pointer targets are shared,
// which is safe since Context fields are treated as immutable values once
// set).
func (c *Context) Copy() *Context {
	cp := *c
	cp.Query = make(map[string][]string, len(c.Query))
	for k, v := range c.Query {
		vv := make([]string, len(v))
		copy(vv, v)
		cp.Query[k] = vv
	}
	cp.ExtraParams = make(map[string]any, len(c.ExtraParams))
	for k, v := range c.ExtraParams {
		cp.ExtraParams[k] = v
	}
	return &cp
}

// Get falls through field -> query -> extra_params -> default.
func (c *Context) Get(key string, def any) any {
	switch key {
	case "rows":
		if c.Rows != nil {
			return *c.Rows
		}
	case "cols":
		if c.Cols != nil {
			return *c.Cols
		}
	case "title":
		if c.Title != nil {
			return *c.Title
		}
	case "host":
		if c.Host != nil {
			return *c.Host
		}
	case "port":
		if c.Port != nil {
			return *c.Port
		}
	}
	if vs, ok := c.Query[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	if v, ok := c.ExtraParams[key]; ok {
		return v
	}
	return def
}

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }
func boolp(v bool) *bool    { return &v }
