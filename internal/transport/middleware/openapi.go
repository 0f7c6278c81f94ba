package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/transport"
	"github.com/frahmantamala/bookkeeping/pkg/logger"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// RequestValidator checks inbound requests against an OpenAPI 3 document.
// Requests that match no documented operation are passed through untouched.
type RequestValidator struct {
	router routers.Router
	prefix string
	base   *transport.BaseHandler
}

// NewRequestValidator loads the document and strips prefix from request paths before matching,
// so the document can list paths relative to its server URL.
func NewRequestValidator(spec []byte, prefix string, lg *slog.Logger) (*RequestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	doc.Servers = nil
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	return &RequestValidator{
		router: router,
		prefix: strings.TrimSuffix(prefix, "/"),
		base:   transport.NewBaseHandler(lg),
	}, nil
}

func (v *RequestValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := v.findRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: func(context.Context, *openapi3filter.AuthenticationInput) error { return nil },
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			logger.From(r.Context()).Warn("openapi request validation failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err)
			v.base.WriteAppError(w, internal.NewValidationError(validationMessage(err), internal.ErrCodeValidationFailed))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (v *RequestValidator) findRoute(r *http.Request) (*routers.Route, map[string]string, error) {
	if v.prefix == "" {
		return v.router.FindRoute(r)
	}
	path := strings.TrimPrefix(r.URL.Path, v.prefix)
	if path == r.URL.Path {
		return nil, nil, fmt.Errorf("path %s outside %s", r.URL.Path, v.prefix)
	}

	routed := r.Clone(r.Context())
	routed.URL.Path = path
	routed.URL.RawPath = ""
	return v.router.FindRoute(routed)
}

func validationMessage(err error) string {
	if reqErr, ok := err.(*openapi3filter.RequestError); ok {
		if reqErr.Parameter != nil {
			return fmt.Sprintf("invalid %s parameter %q: %v", reqErr.Parameter.In, reqErr.Parameter.Name, reqErr.Err)
		}
		if reqErr.Err != nil {
			return fmt.Sprintf("request body does not match the API schema: %v", reqErr.Err)
		}
		return reqErr.Reason
	}
	return err.Error()
}
