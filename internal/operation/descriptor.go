// Package operation describes single logical Jenkins REST calls.
package operation

import (
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
)

// Common content types used by Jenkins endpoints.
const (
	ContentJSON = "application/json"
	ContentXML  = "application/xml"
	ContentForm = "application/x-www-form-urlencoded"
	ContentText = "text/plain"
)

// Descriptor is an immutable description of one logical REST call. The
// With* methods return modified copies and never touch the receiver.
type Descriptor struct {
	name        string
	method      string
	template    string
	params      map[string]string
	query       url.Values
	expected    []int
	paginated   bool
	idempotent  bool
	contentType string
	accept      string
}

// New creates a descriptor. GET, HEAD, PUT, DELETE and OPTIONS are
// idempotent unless overridden with Idempotent.
func New(name, method, template string) Descriptor {
	method = strings.ToUpper(strings.TrimSpace(method))
	return Descriptor{
		name:       name,
		method:     method,
		template:   template,
		idempotent: idempotentMethod(method),
		accept:     ContentJSON,
	}
}

// Get is shorthand for New(name, http.MethodGet, template).
func Get(name, template string) Descriptor { return New(name, http.MethodGet, template) }

// Post is shorthand for New(name, http.MethodPost, template).
func Post(name, template string) Descriptor { return New(name, http.MethodPost, template) }

func idempotentMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	default:
		return false
	}
}

func (d Descriptor) clone() Descriptor {
	c := d
	c.params = maps.Clone(d.params)
	if d.query != nil {
		c.query = make(url.Values, len(d.query))
		for k, v := range d.query {
			c.query[k] = slices.Clone(v)
		}
	}
	c.expected = slices.Clone(d.expected)
	return c
}

// Bind sets a path parameter.
func (d Descriptor) Bind(name, value string) Descriptor {
	c := d.clone()
	if c.params == nil {
		c.params = make(map[string]string)
	}
	c.params[name] = value
	return c
}

// WithQuery sets a query parameter, replacing earlier values.
func (d Descriptor) WithQuery(key, value string) Descriptor {
	c := d.clone()
	if c.query == nil {
		c.query = make(url.Values)
	}
	c.query.Set(key, value)
	return c
}

// Expect declares the status codes that count as success. When none are
// declared any 2xx is success.
func (d Descriptor) Expect(statuses ...int) Descriptor {
	c := d.clone()
	c.expected = slices.Clone(statuses)
	return c
}

// Paginated marks the descriptor as a paged list operation.
func (d Descriptor) Paginated() Descriptor {
	c := d.clone()
	c.paginated = true
	return c
}

// Idempotent overrides the method-derived idempotency flag.
func (d Descriptor) Idempotent(v bool) Descriptor {
	c := d.clone()
	c.idempotent = v
	return c
}

// WithContentType sets the request body content type.
func (d Descriptor) WithContentType(ct string) Descriptor {
	c := d.clone()
	c.contentType = ct
	return c
}

// WithAccept sets the Accept header.
func (d Descriptor) WithAccept(accept string) Descriptor {
	c := d.clone()
	c.accept = accept
	return c
}

func (d Descriptor) Name() string        { return d.name }
func (d Descriptor) Method() string      { return d.method }
func (d Descriptor) Template() string    { return d.template }
func (d Descriptor) IsPaginated() bool   { return d.paginated }
func (d Descriptor) IsIdempotent() bool  { return d.idempotent }
func (d Descriptor) ContentType() string { return d.contentType }
func (d Descriptor) Accept() string      { return d.accept }

// Query returns a copy of the query values.
func (d Descriptor) Query() url.Values {
	return d.clone().query
}

// Param returns a bound path parameter.
func (d Descriptor) Param(name string) (string, bool) {
	v, ok := d.params[name]
	return v, ok
}

// IsExpected reports whether status counts as success for this descriptor.
func (d Descriptor) IsExpected(status int) bool {
	if len(d.expected) == 0 {
		return status >= 200 && status < 300
	}
	return slices.Contains(d.expected, status)
}

// Path expands the template. Parameters are path-escaped unless their
// placeholder is written as {name...}, which keeps slashes intact for
// pre-built segments such as folder paths.
func (d Descriptor) Path() (string, error) {
	var b strings.Builder
	rest := d.template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", errors.InvalidRequestError("unterminated path placeholder").
				WithContext("template", d.template).
				Build()
		}
		end += open
		b.WriteString(rest[:open])

		name := rest[open+1 : end]
		raw := strings.HasSuffix(name, "...")
		name = strings.TrimSuffix(name, "...")

		value, ok := d.params[name]
		if !ok || value == "" {
			return "", errors.InvalidRequestError("unbound path parameter").
				WithContext("template", d.template).
				WithContext("param", name).
				Build()
		}
		if raw {
			b.WriteString(escapeSegments(value))
		} else {
			b.WriteString(url.PathEscape(value))
		}
		rest = rest[end+1:]
	}
	return b.String(), nil
}

func escapeSegments(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// String renders "METHOD template" for logs.
func (d Descriptor) String() string {
	return d.method + " " + d.template
}
