// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"iter"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/telekom/netdiag/pkg/checks"
)

// NewOpenapi describes the result endpoint of every check.
func NewOpenapi(version string, cs iter.Seq[checks.Check]) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:       "netdiag",
			Description: "Results of the checks run by the netdiag monitor",
			Version:     version,
		},
		Paths: openapi3.NewPaths(),
	}

	for c := range cs {
		name := c.Name()
		schema, err := c.Schema()
		if err != nil {
			return nil, ErrCreateOpenapiSchema{name: name, err: err}
		}

		desc := fmt.Sprintf("Returns the latest result of the %s check", name)
		responses := openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().
					WithDescription(desc).
					WithJSONSchemaRef(schema),
			}),
			openapi3.WithStatus(http.StatusNotFound, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("The check has no result yet"),
			}),
		)

		doc.Paths.Set(fmt.Sprintf("/v1/metrics/%s", name), &openapi3.PathItem{
			Get: &openapi3.Operation{
				Summary:     desc,
				OperationID: fmt.Sprintf("get-%s-result", name),
				Responses:   responses,
			},
		})
	}
	return doc, nil
}
