// Package endpoint adapts the view service to Go kit endpoints.
package endpoint

import (
	"context"

	"github.com/go-kit/kit/endpoint"

	"github.com/rwool/viewcounter/pkg/service"
)

// IncrementViewRequest is a request to record one view. It carries no data.
type IncrementViewRequest struct{}

// IncrementViewResponse contains the new view count and an error to indicate
// a failure in the business logic.
type IncrementViewResponse struct {
	Success bool  `json:"success"`
	Count   int64 `json:"count"`
	e       error
}

// Failed indicates if there was a business logic failure.
func (r IncrementViewResponse) Failed() error {
	return r.e
}

// ViewsRequest is a request for the current view count.
type ViewsRequest struct{}

// ViewsResponse contains the current view count.
type ViewsResponse struct {
	Count int64 `json:"count"`
	e     error
}

// Failed indicates if there was a business logic failure.
func (r ViewsResponse) Failed() error {
	return r.e
}

// Endpoints collects the endpoints of the view service.
type Endpoints struct {
	IncrementView endpoint.Endpoint
	Views         endpoint.Endpoint
}

// MakeEndpoints creates the endpoints for s. If m is not nil, every endpoint
// is instrumented with it.
func MakeEndpoints(s service.ViewService, m *Metrics) Endpoints {
	eps := Endpoints{
		IncrementView: MakeIncrementViewEndpoint(s),
		Views:         MakeViewsEndpoint(s),
	}
	if m != nil {
		eps.IncrementView = InstrumentingMiddleware("increment_view", m)(eps.IncrementView)
		eps.Views = InstrumentingMiddleware("views", m)(eps.Views)
	}
	return eps
}

// MakeIncrementViewEndpoint creates an endpoint for recording a view.
func MakeIncrementViewEndpoint(s service.ViewService) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		count, err := s.IncrementView(ctx)
		return IncrementViewResponse{
			Success: err == nil,
			Count:   count,
			e:       err,
		}, nil
	}
}

// MakeViewsEndpoint creates an endpoint for reading the view count.
func MakeViewsEndpoint(s service.ViewService) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		count, err := s.Views(ctx)
		return ViewsResponse{
			Count: count,
			e:     err,
		}, nil
	}
}
