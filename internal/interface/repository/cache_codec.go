package repository

import (
	"encoding/json"
	"fmt"

	"portcall-service/internal/domain/entity"
)

func encodePayload(doc *entity.AggregatedDocument) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache payload: %w", err)
	}
	return string(data), nil
}

func decodePayload(raw string) (*entity.AggregatedDocument, error) {
	var doc entity.AggregatedDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache payload: %w", err)
	}
	return &doc, nil
}
