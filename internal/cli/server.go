package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"angostura-trivia-service/internal/app"
	"angostura-trivia-service/internal/config"
	"angostura-trivia-service/internal/content"
	"angostura-trivia-service/internal/domain"
	"angostura-trivia-service/internal/infra/memory"
	pgstore "angostura-trivia-service/internal/infra/postgres"
	rediscache "angostura-trivia-service/internal/infra/redis"
	transport "angostura-trivia-service/internal/transport/http"
	"angostura-trivia-service/pkg/auth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	cacheTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Question pool: postgres catalog behind a cache, or the built-in
	// sample set when no database is configured.
	var questionRepo transport.QuestionRepository
	var baseSource app.QuestionSource = memory.NewStaticQuestionSource(sampleQuestions())
	if pool != nil {
		store := pgstore.NewQuestionStore(pool)
		questionRepo = store
		baseSource = store
	}

	var source app.QuestionSource
	var invalidator transport.PoolInvalidator
	if redisClient != nil {
		cache := rediscache.NewQuestionCache(redisClient, baseSource, cacheTTL)
		source = cache
		invalidator = cache
	} else {
		cache := memory.NewCachingQuestionSource(baseSource, cacheTTL)
		source = cache
		invalidator = memoryInvalidator{cache}
	}

	// Results: postgres archive or in-memory board, optionally fronted
	// by a redis leaderboard cache.
	memResults := memory.NewResultStore()
	var sink app.ResultSink = memResults
	var provider app.LeaderboardProvider = memResults
	var archive transport.ResultArchive
	if pool != nil {
		resultStore := pgstore.NewResultStore(pool)
		sink = pgstore.Sink{Questions: pgstore.NewQuestionStore(pool), Results: resultStore}
		provider = resultStore
		archive = resultStore
	}

	listeners := app.MultiListener{}
	if redisClient != nil {
		lbCache := rediscache.NewLeaderboardCache(redisClient, provider, cacheTTL)
		provider = lbCache
		listeners = append(listeners, lbCache)
	}

	lbLimit := config.IntOr(cfg.Quiz.LeaderboardLimit, 10)
	feed := app.NewLeaderboardFeed(provider, lbLimit)
	listeners = append(listeners, feed)

	rules := app.Rules{
		QuestionsPerQuiz: config.IntOr(cfg.Quiz.QuestionsPerQuiz, 10),
		AnswerTimeout:    config.TTLDuration(cfg.Quiz.AnswerTimeout, 30*time.Second),
		FeedbackDelay:    config.TTLDuration(cfg.Quiz.FeedbackDelay, 1500*time.Millisecond),
		BasePoints:       config.IntOr(cfg.Quiz.BasePoints, 20),
		BonusDivisor:     config.IntOr(cfg.Quiz.BonusDivisor, 3),
	}

	sessionTTL := config.TTLDuration(cfg.Quiz.SessionTTL, 30*time.Minute)
	sessions := memory.NewSessionStore(sessionTTL)
	defer sessions.Close()

	service := app.NewQuizService(source, sink, sessions, rules, listeners)

	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		jwtSecret = uuid.NewString()
		log.Printf("jwt secret not configured; admin tokens will not survive a restart")
	}
	tokens, err := auth.NewManager(jwtSecret, config.TTLDuration(cfg.JWT.Expiry, 24*time.Hour))
	if err != nil {
		return err
	}

	park := content.Default()
	if cfg.Content.Path != "" {
		loaded, err := content.Load(cfg.Content.Path)
		if err != nil {
			log.Printf("park content load failed, serving defaults: %v", err)
		} else {
			park = loaded
		}
	}

	quizHandler := transport.NewQuizHandler(service, provider, lbLimit)
	adminHandler := transport.NewAdminHandler(questionRepo, archive, tokens, cfg.Admin.Email, cfg.Admin.PasswordHash, invalidator)
	contentHandler := transport.NewContentHandler(park)
	wsHandler := transport.NewWSHandler(feed)
	router := transport.NewRouter(quizHandler, adminHandler, contentHandler, wsHandler, tokens)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// memoryInvalidator adapts the in-process cache to the admin handler.
type memoryInvalidator struct {
	cache *memory.CachingQuestionSource
}

func (m memoryInvalidator) Invalidate(context.Context) error {
	m.cache.Invalidate()
	return nil
}

// sampleQuestions is the built-in pool used when no database is
// configured; `trivia-service seed` loads the same set into postgres.
func sampleQuestions() []domain.Question {
	now := time.Now()
	mk := func(id, text string, options []string, correct int, category, difficulty, explanation string) domain.Question {
		return domain.Question{
			ID:           id,
			Text:         text,
			Options:      options,
			CorrectIndex: correct,
			Category:     category,
			Difficulty:   difficulty,
			Active:       true,
			Explanation:  explanation,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}
	return []domain.Question{
		mk("park-river", "Which river carved the gorge the park is named after?",
			[]string{"Maule", "Biobio", "Itata", "Laja"}, 1,
			"geography", "easy",
			"The Biobio narrows sharply at the Angostura, giving the park its name."),
		mk("park-tree", "Which native tree dominates the park's upper forest?",
			[]string{"Eucalyptus", "Monterey pine", "Araucaria", "Weeping willow"}, 2,
			"nature", "easy",
			"Araucaria araucana, the monkey puzzle tree, is native to the area."),
		mk("park-bird", "Which large bird is commonly spotted gliding over the gorge?",
			[]string{"Andean condor", "Pelican", "Flamingo", "Penguin"}, 0,
			"nature", "medium",
			"Condors nest on the canyon walls and ride the thermal updrafts."),
		mk("park-town", "Which town serves as the main gateway to the park?",
			[]string{"Los Angeles", "Quilaco", "Mulchen", "Santa Barbara"}, 1,
			"communities", "easy",
			"Quilaco sits twelve kilometers from the park entrance."),
		mk("park-activity", "Which activity is NOT allowed inside the conservation area?",
			[]string{"Guided hiking", "Bird watching", "Campfires", "Kayaking"}, 2,
			"rules", "easy",
			"Open fires are banned year-round to protect the native forest."),
		mk("park-trail", "How long is the Native Forest Trail loop?",
			[]string{"1 km", "4 km", "10 km", "15 km"}, 1,
			"geography", "medium",
			"The loop covers four kilometers through coihue and araucaria stands."),
		mk("park-season", "Which season offers the best condor sightings?",
			[]string{"Summer", "Autumn", "Winter", "Spring"}, 0,
			"nature", "hard",
			"Summer thermals over the gorge draw the most soaring birds."),
		mk("park-project", "What is the main goal of the conservation project?",
			[]string{"Building a dam", "Protecting native forest", "Opening a mine", "Paving the gorge road"}, 1,
			"project", "easy",
			"The community project protects the forest and funds sustainable tourism."),
		mk("park-guides", "Who leads the official tours through the park?",
			[]string{"Park rangers only", "Trained local guides", "Visiting volunteers", "Self-guided apps"}, 1,
			"communities", "medium",
			"Guide training for residents is one of the project's core goals."),
		mk("park-fauna", "Which mammal leaves the tracks most often found on the river bank?",
			[]string{"Puma", "Huemul", "Coypu", "Wild boar"}, 2,
			"nature", "hard",
			"Coypu burrow along the slower stretches of the river."),
	}
}
