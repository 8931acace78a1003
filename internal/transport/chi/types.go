package chi

import (
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	domref "github.com/kailas-cloud/spherenn/internal/domain/refset"
	refsetuc "github.com/kailas-cloud/spherenn/internal/usecase/refset"
)

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeUnauthorized        ErrorCode = "unauthorized"
	ErrorCodeInvalidQuery        ErrorCode = "invalid_query"
	ErrorCodeInvalidReferenceSet ErrorCode = "invalid_reference_set"
	ErrorCodeNotFound            ErrorCode = "not_found"
	ErrorCodeEmptyReferenceSet   ErrorCode = "empty_reference_set"
	ErrorCodeUnknownEngine       ErrorCode = "unknown_engine"
	ErrorCodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Indexes int               `json:"cached_indexes"`
}

// DistanceRequest is the body of POST /v1/distance.
type DistanceRequest struct {
	A geo.Coordinate `json:"a"`
	B geo.Coordinate `json:"b"`
}

// DistanceResponse reports a distance in radians and degrees.
type DistanceResponse struct {
	Metric  string  `json:"metric"`
	Radians float64 `json:"radians"`
	Degrees float64 `json:"degrees"`
}

// PutSetRequest is the body of PUT /v1/sets/{name}.
type PutSetRequest struct {
	Description string           `json:"description,omitempty"`
	Points      []geo.Coordinate `json:"points"`
}

// SetResponse describes a stored reference set.
type SetResponse struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Count       int              `json:"count"`
	Points      []geo.Coordinate `json:"points,omitempty"`
	CreatedAt   int64            `json:"created_at"`
	UpdatedAt   int64            `json:"updated_at"`
}

// SetListResponse is the body of GET /v1/sets.
type SetListResponse struct {
	Items []domref.Summary `json:"items"`
	Total int              `json:"total"`
}

// NearestParams are the query parameters of GET /v1/sets/{name}/nearest.
type NearestParams struct {
	Azimuth   float64
	Elevation float64
	K         *int
	Mode      *string
}

// NeighborItem is one nearest-query answer.
type NeighborItem struct {
	Index   int            `json:"index"`
	Point   geo.Coordinate `json:"point"`
	Radians float64        `json:"radians"`
	Degrees float64        `json:"degrees"`
}

// NearestResponse is the body of GET /v1/sets/{name}/nearest.
type NearestResponse struct {
	Set         string         `json:"set"`
	Engine      string         `json:"engine"`
	Mode        string         `json:"mode"`
	Query       geo.Coordinate `json:"query"`
	Items       []NeighborItem `json:"items"`
	Evaluations int            `json:"evaluations"`
}

// ValidateRequest is the body of POST /v1/sets/{name}/validate. All fields optional.
type ValidateRequest struct {
	Queries   []geo.Coordinate `json:"queries,omitempty"`
	Count     int              `json:"count,omitempty"`
	Seed      int64            `json:"seed,omitempty"`
	Tolerance *float64         `json:"tolerance,omitempty"`
}

func setToResponse(s domref.Set, withPoints bool) SetResponse {
	resp := SetResponse{
		Name:        s.Name(),
		Description: s.Description(),
		Count:       s.Len(),
		CreatedAt:   s.CreatedAt(),
		UpdatedAt:   s.UpdatedAt(),
	}
	if withPoints {
		resp.Points = s.Coordinates()
	}
	return resp
}

func nearestToResponse(q geo.Coordinate, res refsetuc.NearestResult) NearestResponse {
	items := make([]NeighborItem, len(res.Neighbors))
	for i, n := range res.Neighbors {
		items[i] = NeighborItem{
			Index:   n.Index,
			Point:   n.Coordinate,
			Radians: n.Distance,
			Degrees: toDegrees(n.Distance),
		}
	}
	return NearestResponse{
		Set:         res.Set,
		Engine:      res.Engine,
		Mode:        string(res.Mode),
		Query:       q,
		Items:       items,
		Evaluations: res.Evaluations,
	}
}
