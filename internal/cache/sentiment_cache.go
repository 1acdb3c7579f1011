package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"survai/internal/model"

	"github.com/redis/go-redis/v9"
)

// SentimentTTL is how long a survey-wide sentiment report stays cached
const SentimentTTL = time.Hour

// SentimentCache handles Redis operations for survey sentiment reports
type SentimentCache interface {
	Get(ctx context.Context, surveyID string) (*model.SentimentReport, error)
	Set(ctx context.Context, report *model.SentimentReport) error
	Delete(ctx context.Context, surveyID string) error
	Exists(ctx context.Context, surveyID string) (bool, error)
}

type sentimentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSentimentCache creates a new sentiment cache
func NewSentimentCache(client *redis.Client) SentimentCache {
	return &sentimentCache{
		client: client,
		ttl:    SentimentTTL,
	}
}

func (c *sentimentCache) key(surveyID string) string {
	return fmt.Sprintf("sentiment_analysis:%s", surveyID)
}

func (c *sentimentCache) Get(ctx context.Context, surveyID string) (*model.SentimentReport, error) {
	data, err := c.client.Get(ctx, c.key(surveyID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report model.SentimentReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *sentimentCache) Set(ctx context.Context, report *model.SentimentReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(report.SurveyID), data, c.ttl).Err()
}

func (c *sentimentCache) Delete(ctx context.Context, surveyID string) error {
	return c.client.Del(ctx, c.key(surveyID)).Err()
}

func (c *sentimentCache) Exists(ctx context.Context, surveyID string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(surveyID)).Result()
	return n > 0, err
}
