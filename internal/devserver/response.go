package devserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// pageSize matches the REST framework's PAGE_SIZE setting.
const pageSize = 20

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response. A nil body writes headers only.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse renders {"detail": message} the way the REST framework
// reports non-field errors.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(map[string]string{"detail": message})
}

// FieldErrors renders a 400 with one message list per field.
func FieldErrors(errs map[string][]string) *ResponseBuilder {
	return NewResponse().Status(http.StatusBadRequest).JSON(errs)
}

func fieldError(field, message string) *ResponseBuilder {
	return FieldErrors(map[string][]string{field: {message}})
}

func NotFoundError() *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "Not found.")
}

func tokenNotValid(message string) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusUnauthorized).
		Header("WWW-Authenticate", `Bearer realm="api"`).
		JSON(map[string]string{"detail": message, "code": "token_not_valid"})
}

// pageEnvelope is the REST framework's PageNumberPagination body.
type pageEnvelope[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// paginate slices items by the "page" query parameter. ok is false when
// the page does not exist.
func paginate[T any](r *http.Request, items []T) (env pageEnvelope[T], ok bool) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return env, false
		}
		page = n
	}

	start := (page - 1) * pageSize
	if start > 0 && start >= len(items) {
		return env, false
	}
	end := min(start+pageSize, len(items))

	env.Count = len(items)
	env.Results = items[start:end]
	if env.Results == nil {
		env.Results = []T{}
	}
	if end < len(items) {
		next := pageURL(r, page+1)
		env.Next = &next
	}
	if page > 1 {
		prev := pageURL(r, page-1)
		env.Previous = &prev
	}
	return env, true
}

// pageURL rebuilds the absolute request URL pointing at page.
func pageURL(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	q := r.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}

func writePage[T any](w http.ResponseWriter, r *http.Request, items []T) {
	env, ok := paginate(r, items)
	if !ok {
		ErrorResponse(http.StatusNotFound, "Invalid page.").Write(w)
		return
	}
	NewResponse().JSON(env).Write(w)
}

// writeList sends a bare JSON array, never null.
func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	NewResponse().JSON(items).Write(w)
}
