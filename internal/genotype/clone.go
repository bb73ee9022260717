package genotype

import (
	"fmt"

	"evonet/internal/model"
)

// Replicate deep copies m under a new id. The copy shares no state with m
// and can be mutated by its own replicator.
func Replicate(m *model.Model, id string) (*model.Model, error) {
	if m == nil {
		return nil, fmt.Errorf("model is required")
	}
	if id == "" {
		return nil, fmt.Errorf("replica id is required")
	}
	out := m.Clone()
	out.ID = id
	return out, nil
}

// ReplicateN returns n replicas of m with ids "<m.ID>-r<i>".
func ReplicateN(m *model.Model, n int) ([]*model.Model, error) {
	if n < 0 {
		return nil, fmt.Errorf("replica count must be >= 0, got %d", n)
	}
	if m == nil {
		return nil, fmt.Errorf("model is required")
	}
	out := make([]*model.Model, 0, n)
	for i := 0; i < n; i++ {
		replica, err := Replicate(m, fmt.Sprintf("%s-r%d", m.ID, i))
		if err != nil {
			return nil, err
		}
		out = append(out, replica)
	}
	return out, nil
}
