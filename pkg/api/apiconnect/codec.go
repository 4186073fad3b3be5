package apiconnect

import (
	"encoding/json"
	"fmt"
)

// Codec encodes api messages as JSON. It registers under the "json" name so
// Connect clients and handlers negotiate it as application/json.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string {
	return "json"
}

// Marshal implements connect.Codec.
func (Codec) Marshal(message any) ([]byte, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", message, err)
	}
	return data, nil
}

// Unmarshal implements connect.Codec.
func (Codec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, message); err != nil {
		return fmt.Errorf("unmarshal %T: %w", message, err)
	}
	return nil
}
