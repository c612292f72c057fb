package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/nullvoyager/voyager/pkg/domain"
)

// Codec converts a state record to and from its stored form.
type Codec interface {
	Encode(state *domain.VoyagerState) ([]byte, error)
	Decode(data []byte) (*domain.VoyagerState, error)
}

// JSON is the default codec. Records are stored as plain JSON.
var JSON Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Encode(state *domain.VoyagerState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

func (jsonCodec) Decode(data []byte) (*domain.VoyagerState, error) {
	var state domain.VoyagerState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	state.Normalize()
	return &state, nil
}
