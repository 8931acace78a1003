package refset

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	domref "github.com/kailas-cloud/spherenn/internal/domain/refset"
)

// setToHash converts set metadata to a map for HSET. Coordinates are stored separately.
func setToHash(s domref.Set) map[string]string {
	return map[string]string{
		"name":        s.Name(),
		"description": s.Description(),
		"count":       strconv.Itoa(s.Len()),
		"created_at":  strconv.FormatInt(s.CreatedAt(), 10),
		"updated_at":  strconv.FormatInt(s.UpdatedAt(), 10),
	}
}

// setFromHash hydrates a Set from an HGETALL result and decoded coordinates.
func setFromHash(m map[string]string, coords []geo.Coordinate) (domref.Set, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domref.Set{}, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAt, err := strconv.ParseInt(m["updated_at"], 10, 64)
	if err != nil {
		updatedAt = createdAt
	}
	return domref.Reconstruct(m["name"], m["description"], coords, createdAt, updatedAt), nil
}

func summaryFromHash(m map[string]string) (domref.Summary, error) {
	count, err := strconv.Atoi(m["count"])
	if err != nil {
		return domref.Summary{}, fmt.Errorf("invalid count: %w", err)
	}
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domref.Summary{}, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAt, _ := strconv.ParseInt(m["updated_at"], 10, 64)
	return domref.Summary{
		Name:        m["name"],
		Description: m["description"],
		Count:       count,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func encodeCoordinates(cs []geo.Coordinate) ([]byte, error) {
	if cs == nil {
		cs = []geo.Coordinate{}
	}
	data, err := json.Marshal(cs)
	if err != nil {
		return nil, fmt.Errorf("marshal coordinates: %w", err)
	}
	return data, nil
}

func decodeCoordinates(data []byte) ([]geo.Coordinate, error) {
	var cs []geo.Coordinate
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("unmarshal coordinates: %w", err)
	}
	return cs, nil
}
