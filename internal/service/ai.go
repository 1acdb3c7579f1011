package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"survai/internal/aiclient"
)

// Completer is the slice of the AI client the services need
type Completer interface {
	Complete(ctx context.Context, prompt, system string) (string, error)
}

var errAIDisabled = errors.New("ai completion disabled")

// completeJSON runs one completion and decodes the outermost JSON object in the reply
func completeJSON(ctx context.Context, ai Completer, prompt, system string) (map[string]interface{}, error) {
	if ai == nil {
		return nil, errAIDisabled
	}
	reply, err := ai.Complete(ctx, prompt, system)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(aiclient.ExtractJSON(reply)), &raw); err != nil {
		return nil, fmt.Errorf("decode ai reply: %w", err)
	}
	return raw, nil
}
