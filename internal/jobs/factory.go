package jobs

import (
	"survai/internal/cache"
	"survai/internal/config"
	"survai/internal/logger"
	"survai/internal/repository"
	"survai/internal/service"
)

// Factory builds jobs that share the process-wide dependencies
type Factory struct {
	surveys   repository.SurveyRepo
	generator *service.DataGenerator
	analyzer  *service.SentimentAnalyzer
	cache     cache.SentimentCache
	cfg       config.JobsConfig
	log       *logger.Logger
}

func NewFactory(
	surveys repository.SurveyRepo,
	generator *service.DataGenerator,
	analyzer *service.SentimentAnalyzer,
	sentimentCache cache.SentimentCache,
	cfg config.JobsConfig,
	log *logger.Logger,
) *Factory {
	return &Factory{
		surveys:   surveys,
		generator: generator,
		analyzer:  analyzer,
		cache:     sentimentCache,
		cfg:       cfg,
		log:       log,
	}
}

func (f *Factory) DataGeneration(surveyID string, assignments, responses int) Job {
	return NewDataGenerationJob(NewJobID(), surveyID, assignments, responses, f.surveys, f.generator, f.cfg.Pacing, f.log)
}

func (f *Factory) SentimentAnalysis(surveyID string) Job {
	return NewSentimentAnalysisJob(NewJobID(), surveyID, f.analyzer, f.cache, f.cfg.SentimentTimeout, f.cfg.Pacing, f.log)
}
