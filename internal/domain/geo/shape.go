package geo

import (
	"errors"
	"fmt"
)

// ErrUnsupportedShape is returned for geo-shape descriptors of unknown type.
var ErrUnsupportedShape = errors.New("unsupported geo shape")

// Shape type names used in descriptors.
const (
	TypeCoordinateAndDistance = "CoordinateAndDistance"
	TypePolygon               = "Polygon"
	TypeSquare                = "Square"
)

// MinPolygonPoints is the minimum number of vertices of a polygon shape.
const MinPolygonPoints = 3

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Validate checks that the coordinate lies on the globe.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %v out of range", c.Lon)
	}
	return nil
}

// Shape is a closed set of geo filter shapes.
type Shape interface {
	ShapeType() string
	isShape()
}

// CoordinateAndDistance matches points within Distance of Center.
type CoordinateAndDistance struct {
	Center   Coordinate
	Distance string // engine distance unit string, e.g. "10km"
}

// Polygon matches points inside the closed polygon.
type Polygon struct {
	Points []Coordinate
}

// Square matches points inside a bounding box.
type Square struct {
	TopLeft     Coordinate
	BottomRight Coordinate
}

// ShapeType implements Shape.
func (CoordinateAndDistance) ShapeType() string { return TypeCoordinateAndDistance }

// ShapeType implements Shape.
func (Polygon) ShapeType() string { return TypePolygon }

// ShapeType implements Shape.
func (Square) ShapeType() string { return TypeSquare }

func (CoordinateAndDistance) isShape() {}
func (Polygon) isShape()               {}
func (Square) isShape()                {}

// ParseShape builds a Shape from a descriptor of the form
// {"type": "...", "data": {...}} as decoded from JSON.
func ParseShape(desc map[string]any) (Shape, error) {
	typ, _ := desc["type"].(string)
	data, _ := desc["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}

	switch typ {
	case TypeCoordinateAndDistance:
		center, err := parseCoordinate(data["coordinate"])
		if err != nil {
			return nil, fmt.Errorf("coordinate: %w", err)
		}
		distance, _ := data["distance"].(string)
		if distance == "" {
			return nil, errors.New("distance is required")
		}
		return CoordinateAndDistance{Center: center, Distance: distance}, nil

	case TypePolygon:
		raw, _ := data["coordinates"].([]any)
		if len(raw) < MinPolygonPoints {
			return nil, fmt.Errorf("polygon requires at least %d coordinates", MinPolygonPoints)
		}
		points := make([]Coordinate, 0, len(raw))
		for i, r := range raw {
			c, err := parseCoordinate(r)
			if err != nil {
				return nil, fmt.Errorf("coordinates[%d]: %w", i, err)
			}
			points = append(points, c)
		}
		return Polygon{Points: points}, nil

	case TypeSquare:
		topLeft, err := parseCoordinate(data["top_left"])
		if err != nil {
			return nil, fmt.Errorf("top_left: %w", err)
		}
		bottomRight, err := parseCoordinate(data["bottom_right"])
		if err != nil {
			return nil, fmt.Errorf("bottom_right: %w", err)
		}
		return Square{TopLeft: topLeft, BottomRight: bottomRight}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedShape, typ)
	}
}

func parseCoordinate(v any) (Coordinate, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Coordinate{}, errors.New("coordinate object is required")
	}
	lat, okLat := m["lat"].(float64)
	lon, okLon := m["lon"].(float64)
	if !okLat || !okLon {
		return Coordinate{}, errors.New("lat and lon are required")
	}
	c := Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Describe renders a Shape as the descriptor ParseShape accepts.
func Describe(s Shape) (map[string]any, error) {
	var data map[string]any
	switch v := s.(type) {
	case CoordinateAndDistance:
		data = map[string]any{"coordinate": coordinateMap(v.Center), "distance": v.Distance}
	case Polygon:
		points := make([]any, len(v.Points))
		for i, p := range v.Points {
			points[i] = coordinateMap(p)
		}
		data = map[string]any{"coordinates": points}
	case Square:
		data = map[string]any{
			"top_left":     coordinateMap(v.TopLeft),
			"bottom_right": coordinateMap(v.BottomRight),
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedShape, s)
	}
	return map[string]any{"type": s.ShapeType(), "data": data}, nil
}

func coordinateMap(c Coordinate) map[string]any {
	return map[string]any{"lat": c.Lat, "lon": c.Lon}
}
