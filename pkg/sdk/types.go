package querygate

import "github.com/kailas-cloud/querygate/internal/wire"

// Request shapes shared with the HTTP API.
type (
	Request     = wire.CompileRequest
	Filter      = wire.Filter
	Terms       = wire.Terms
	Aggregation = wire.Aggregation
	Score       = wire.Score
	Strategy    = wire.Strategy
	Sort        = wire.Sort
	Coordinate  = wire.Coordinate
	Profile     = wire.Profile
)
