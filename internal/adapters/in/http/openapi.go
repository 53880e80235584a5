package http

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/labstack/echo/v4"
)

//go:embed openapi.yaml
var apiDocument []byte

// LoadAPIDocument parses and validates the embedded description of /api/v1.
func LoadAPIDocument(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(apiDocument)
	if err != nil {
		return nil, fmt.Errorf("load api document: %w", err)
	}
	if err = doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate api document: %w", err)
	}
	return doc, nil
}

// requestValidator checks request bodies against the api document before they reach a handler.
type requestValidator struct {
	router routers.Router
}

func newRequestValidator(ctx context.Context) (*requestValidator, error) {
	doc, err := LoadAPIDocument(ctx)
	if err != nil {
		return nil, err
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}
	return &requestValidator{router: router}, nil
}

func (v *requestValidator) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		route, pathParams, err := v.router.FindRoute(req)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, Error{
				Code:    http.StatusInternalServerError,
				Message: "Route is missing from the api document",
			})
		}
		input := &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		}
		if err = openapi3filter.ValidateRequest(req.Context(), input); err != nil {
			return badRequest(c, err.Error())
		}
		return next(c)
	}
}
