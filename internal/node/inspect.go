package node

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// InspectReport is one report produced by an inspect request.
type InspectReport struct {
	Payload Bytes `json:"payload" yaml:"payload"`
}

// InspectMetadata is the legacy epoch/input position block.
type InspectMetadata struct {
	ActiveEpochIndex  HexUint64 `json:"active_epoch_index" yaml:"active_epoch_index"`
	CurrentInputIndex HexUint64 `json:"current_input_index" yaml:"current_input_index"`
}

// InspectResult is the node's answer to an inspect request.
type InspectResult struct {
	Status              string           `json:"status" yaml:"status"`
	ExceptionPayload    Bytes            `json:"exception_payload,omitempty" yaml:"exception_payload,omitempty"`
	Reports             []InspectReport  `json:"reports" yaml:"reports"`
	ProcessedInputCount *HexUint64       `json:"processed_input_count,omitempty" yaml:"processed_input_count,omitempty"`
	Metadata            *InspectMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Accepted reports whether the application accepted the request.
func (r *InspectResult) Accepted() bool { return r.Status == "Accepted" }

// Inspect sends payload to the application's inspect endpoint. Inspect
// requests are read-only and never reach the base layer.
func (c *Client) Inspect(ctx context.Context, payload []byte) (*InspectResult, error) {
	url := fmt.Sprintf("%s/inspect/%s", c.baseURL, c.app)
	c.log.Debug("inspect", zap.String("url", url), zap.Int("bytes", len(payload)))

	data, err := c.post(ctx, url, payload)
	if err != nil {
		return nil, fmt.Errorf("inspect: %w", err)
	}
	var res InspectResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("inspect: decoding response: %w", err)
	}
	return &res, nil
}
