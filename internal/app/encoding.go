package app

import (
	"encoding/json"
	"fmt"
)

func encode(obj any) (string, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("failed encoding: %w", err)
	}
	return string(data), nil
}

func decode(in string, obj any) error {
	err := json.Unmarshal([]byte(in), obj)
	if err != nil {
		return fmt.Errorf("failed decoding: %w", err)
	}
	return nil
}
