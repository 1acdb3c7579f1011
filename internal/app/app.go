package app

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"survai/internal/aiclient"
	"survai/internal/cache"
	"survai/internal/config"
	"survai/internal/jobs"
	"survai/internal/logger"
	"survai/internal/questiontype"
	"survai/internal/repository"
	"survai/internal/sentiment"
	"survai/internal/service"
	"survai/internal/transport/rest"
	"survai/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// App owns the connections, services and background workers of one API instance
type App struct {
	cfg *config.Config
	log *logger.Logger

	Mongo *mongo.Client
	Redis *redis.Client

	Hub     *ws.Hub
	Bus     *cache.ProgressBus
	Runner  *jobs.Runner
	Handler http.Handler
}

// New connects to MongoDB and Redis and wires every component
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	mongoClient, err := connectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	log.Info("connected to MongoDB", "database", cfg.Mongo.Database)

	db := mongoClient.Database(cfg.Mongo.Database)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	rdb, err := connectRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, err
	}
	log.Info("connected to Redis", "addr", cfg.Redis.Addr)

	profile, err := config.LoadRealismProfile(cfg.RealismProfile)
	if err != nil {
		_ = mongoClient.Disconnect(ctx)
		_ = rdb.Close()
		return nil, err
	}

	a := &App{cfg: cfg, log: log, Mongo: mongoClient, Redis: rdb}
	a.wire(db, profile)
	return a, nil
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func connectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	// Remove redis:// prefix if present
	addr = strings.TrimPrefix(addr, "redis://")
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (a *App) wire(db *mongo.Database, profile *config.RealismProfile) {
	cfg, log := a.cfg, a.log

	// Repositories
	surveyRepo := repository.NewSurveyRepo(db)
	userRepo := repository.NewUserRepo(db)
	assignmentRepo := repository.NewAssignmentRepo(db)
	responseRepo := repository.NewResponseRepo(db)
	insightRepo := repository.NewInsightRepo(db)

	// Caches
	sentimentCache := cache.NewSentimentCache(a.Redis)
	jobLock := cache.NewJobLock(a.Redis)

	// Broadcast path: jobs publish to Redis when relaying, and every
	// instance forwards the relay into its own hub
	a.Hub = ws.NewHub(log)
	var events service.Broadcaster = a.Hub
	if cfg.Redis.RelayProgress {
		a.Bus = cache.NewProgressBus(a.Redis, log)
		events = a.Bus
	}

	// AI stays a nil interface when disabled so services take their fallbacks
	var ai service.Completer
	if cfg.AIEnabled {
		ai = aiclient.New(cfg.AI)
		log.Info("AI provider configured", "provider", cfg.AI.Provider(), "model", cfg.AI.Model, "keyConfigured", cfg.AI.APIKey != "")
	} else {
		log.Warn("AI disabled, using rule-based fallbacks")
	}

	registry := questiontype.Default()
	lexicon := sentiment.DefaultLexicon()
	genProfile := service.DefaultGeneratorProfile()
	if profile != nil {
		lexicon = lexicon.WithOverrides(profile.PositiveWords, profile.NegativeWords)
		genProfile = genProfile.WithOverrides(profile)
	}
	ruleScorer := sentiment.NewRuleScorer(lexicon)
	var scorer sentiment.Scorer = ruleScorer
	if ai != nil {
		scorer = sentiment.NewAIScorer(ai, ruleScorer, log)
	}

	// Services
	authSvc := service.NewAuthService(cfg.Auth)
	responseSvc := service.NewResponseService(assignmentRepo, responseRepo, userRepo, registry, events, log)
	reviewSvc := service.NewReviewService(ai, log)
	insightSvc := service.NewInsightService(surveyRepo, assignmentRepo, responseRepo, userRepo, insightRepo, ai, log)
	summarySvc := service.NewSummaryService(surveyRepo, responseRepo, registry, ai, log)
	surveyGen := service.NewSurveyGeneratorService(surveyRepo, registry, ai, log)
	analyzer := service.NewSentimentAnalyzer(surveyRepo, responseRepo, userRepo, registry, ruleScorer, log)
	generator := service.NewDataGenerator(userRepo, assignmentRepo, responseSvc, registry, ai, genProfile,
		rand.New(rand.NewSource(time.Now().UnixNano())), log)

	// Jobs
	a.Runner = jobs.NewRunner(cfg.Jobs, events, jobLock, log)
	factory := jobs.NewFactory(surveyRepo, generator, analyzer, sentimentCache, cfg.Jobs, log)

	a.Handler = rest.NewRouter(&rest.Container{
		AuthService:      authSvc,
		Surveys:          surveyRepo,
		ReviewService:    reviewSvc,
		InsightService:   insightSvc,
		SummaryService:   summarySvc,
		SurveyGenerator:  surveyGen,
		ResponseService:  responseSvc,
		Analyzer:         analyzer,
		Scorer:           scorer,
		SentimentCache:   sentimentCache,
		Runner:           a.Runner,
		JobFactory:       factory,
		WSHub:            a.Hub,
		CORSAllowOrigins: cfg.Server.CORSAllowedOrigins,
		Log:              log,
	})
}

// Run serves HTTP and runs the job workers until ctx is cancelled, then
// drains both
func (a *App) Run(ctx context.Context) error {
	if a.Bus != nil {
		err := a.Bus.StartForwarder(ctx, func(env cache.Envelope) {
			a.Hub.BroadcastRaw(env.Channel, env.Type, env.Payload)
		})
		if err != nil {
			return fmt.Errorf("start progress relay: %w", err)
		}
		a.log.Info("progress relay started", "channel", cache.DefaultRelayChannel)
	}

	srv := &http.Server{
		Addr:    ":" + a.cfg.Server.Port,
		Handler: a.Handler,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Runner.Run(gctx)
	})
	g.Go(func() error {
		a.log.Info("server starting", "port", a.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close releases the database connections
func (a *App) Close(ctx context.Context) {
	if err := a.Redis.Close(); err != nil {
		a.log.Warn("close redis", "error", err)
	}
	if err := a.Mongo.Disconnect(ctx); err != nil {
		a.log.Warn("disconnect mongo", "error", err)
	}
}
