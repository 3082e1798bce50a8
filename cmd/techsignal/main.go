// Command techsignal runs the research-artifact ingestion and
// analytics engine described in spec.md: a catalog of deduplicated
// papers, news, repos, and transcripts, refreshed on a schedule and
// served over a read-mostly HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/techsignal/internal/analytics"
	"github.com/sawpanic/techsignal/internal/breakdown"
	"github.com/sawpanic/techsignal/internal/catalog"
	"github.com/sawpanic/techsignal/internal/config"
	"github.com/sawpanic/techsignal/internal/httpapi"
	"github.com/sawpanic/techsignal/internal/knowledge"
	"github.com/sawpanic/techsignal/internal/llm"
	"github.com/sawpanic/techsignal/internal/orchestrator"
	"github.com/sawpanic/techsignal/internal/ratelimit"
	"github.com/sawpanic/techsignal/internal/scheduler"
	"github.com/sawpanic/techsignal/internal/sources"
)

const version = "v0.1.0"

var (
	configPath string
	envPath    string
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "techsignal",
		Short:   "Research-artifact ingestion and analytics engine",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/app.yaml", "path to the YAML application config")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "path to a .env file with provider credentials")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and HTTP API until interrupted",
		RunE:  runServe,
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run a single catalog ingestion cycle and exit",
		RunE:  runRefresh,
	}
	refreshCmd.Flags().Bool("force", false, "reset the window to spec.md §4.6's 7-day force threshold")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply durable-store schema migrations (Postgres catalog + knowledge graph)",
		RunE:  runMigrate,
	}

	rootCmd.AddCommand(serveCmd, refreshCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("techsignal: command failed")
		os.Exit(1)
	}
}

// deployment bundles every component main.go wires together, built
// once per invocation from AppConfig and Credentials.
type deployment struct {
	cfg           config.AppConfig
	catalogStore  *catalog.Store
	filePersister *catalog.FilePersister
	pgPersister   *catalog.PostgresPersister
	orch          *orchestrator.Orchestrator
	sched         *scheduler.Scheduler
	engine        *analytics.Engine
	leaderStore   *breakdown.Store
	llmProvider   llm.Provider
	knowledge     *knowledge.Store
	pgPool        *pgxpool.Pool
}

// loadCatalog rehydrates the in-memory Catalog Store from whichever
// durable backend is configured.
func (d *deployment) loadCatalog(ctx context.Context) error {
	switch {
	case d.pgPersister != nil:
		records, err := d.pgPersister.LoadAll(ctx)
		if err != nil {
			return err
		}
		d.catalogStore.Merge(records, nil, time.Now())
		return nil
	case d.filePersister != nil:
		d.filePersister.Load(d.catalogStore)
		return nil
	default:
		return nil
	}
}

// saveCatalog persists the in-memory Catalog Store to whichever
// durable backend is configured.
func (d *deployment) saveCatalog(ctx context.Context) error {
	switch {
	case d.pgPersister != nil:
		return d.pgPersister.UpsertBatch(ctx, d.catalogStore.Snapshot())
	case d.filePersister != nil:
		return d.filePersister.Save(d.catalogStore)
	default:
		return nil
	}
}

func buildDeployment(ctx context.Context) (*deployment, error) {
	cfg, err := config.LoadAppConfig(configPath)
	if err != nil {
		return nil, err
	}
	creds := config.LoadCredentials(envPath)

	rates := make(map[string]float64, len(cfg.RateLimits))
	names := make([]string, 0, len(cfg.RateLimits))
	for name, rl := range cfg.RateLimits {
		rates[name] = rl.RequestsPerSecond
		names = append(names, name)
	}
	limiter := ratelimit.NewManager(rates)
	client := sources.NewClient(limiter, names)

	adapters := []sources.Adapter{
		sources.NewArxivAdapter(client),
		sources.NewCrossrefAdapter(client),
		sources.NewDBLPAdapter(client),
		sources.NewOpenAlexAdapter(client),
		sources.NewPubMedAdapter(client),
		sources.NewSemanticScholarAdapter(client),
		sources.NewGitHubAdapter(client, creds.GitHubToken),
		sources.NewNewsAdapter(client, defaultNewsFeeds()),
		sources.NewJobAdapter(client, defaultJobBoards()),
		sources.NewPodcastAdapter(client, creds.YouTubeAPIKey, defaultPodcastChannels()),
		sources.NewPatentAdapter(client, creds.PatentAPIKey),
	}

	catalogStore := catalog.NewStore(cfg.MaxRecords)

	var filePersister *catalog.FilePersister
	var pgPersister *catalog.PostgresPersister
	var pgPool *pgxpool.Pool
	switch cfg.StoreBackend {
	case "postgres":
		dbURL := cfg.DatabaseURL
		if creds.DatabaseURL != "" {
			dbURL = creds.DatabaseURL
		}
		db, err := sqlx.Open("postgres", dbURL)
		if err != nil {
			return nil, err
		}
		pgPersister = catalog.NewPostgresPersister(db, 30*time.Second)

		pgPool, err = pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, err
		}
	default:
		path := cfg.StorePath
		if path == "" {
			path = "data/catalog.json"
		}
		filePersister = catalog.NewFilePersister(path)
	}

	orch := orchestrator.New(adapters, catalogStore, cfg.MaxRecords)

	leaderStore := breakdown.NewStore()
	snapshotStore := analytics.NewFileSnapshotStore("data/analytics_snapshot.json")
	engine := analytics.NewEngine(catalogStore, leaderStore, snapshotStore, cfg.DeepRefreshWindow())

	sched := scheduler.New(scheduler.Config{
		CatalogRefreshCron:   cronEveryMinutes(cfg.RefreshIntervalMinutes),
		AnalyticsRefreshCron: cronEveryHours(cfg.DeepRefreshHours),
	}, orch, engine)

	provider := llm.New(llm.Config{
		Provider: cfg.LLMProvider,
		APIKey:   llmAPIKey(cfg.LLMProvider, creds),
		Model:    cfg.LLMModel,
	})

	var knowledgeStore *knowledge.Store
	if pgPool != nil {
		embedder := knowledge.NewOpenAIEmbedder(creds.OpenAIAPIKey)
		knowledgeStore = knowledge.NewStore(pgPool, embedder, provider)
	}

	dep := &deployment{
		cfg:           cfg,
		catalogStore:  catalogStore,
		filePersister: filePersister,
		pgPersister:   pgPersister,
		orch:          orch,
		sched:         sched,
		engine:        engine,
		leaderStore:   leaderStore,
		llmProvider:   provider,
		knowledge:     knowledgeStore,
		pgPool:        pgPool,
	}
	if err := dep.loadCatalog(ctx); err != nil {
		return nil, err
	}
	return dep, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dep, err := buildDeployment(ctx)
	if err != nil {
		return err
	}
	defer closeDeployment(dep)

	if err := dep.sched.Start(ctx); err != nil {
		return err
	}

	handlers := httpapi.NewHandlers(dep.catalogStore, dep.engine, dep.sched, dep.leaderStore, dep.orch)
	server := httpapi.NewServer(serverConfig(dep.cfg), handlers)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("techsignal: http server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("techsignal: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("techsignal: http server shutdown error")
	}

	return dep.saveCatalog(context.Background())
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dep, err := buildDeployment(ctx)
	if err != nil {
		return err
	}
	defer closeDeployment(dep)

	force, _ := cmd.Flags().GetBool("force")
	stats, err := dep.orch.RunCycle(ctx, force)
	if err != nil {
		return err
	}
	log.Info().
		Int("fetched", stats.FetchedTotal).
		Int("new", stats.NewRecords).
		Int("updated", stats.UpdatedRecords).
		Dur("duration", stats.Duration).
		Msg("techsignal: refresh cycle complete")

	return dep.saveCatalog(ctx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dep, err := buildDeployment(ctx)
	if err != nil {
		return err
	}
	defer closeDeployment(dep)

	if dep.pgPersister != nil {
		if err := dep.pgPersister.Migrate(ctx); err != nil {
			return err
		}
	}
	if dep.knowledge != nil {
		if err := dep.knowledge.Migrate(ctx); err != nil {
			return err
		}
	}
	log.Info().Msg("techsignal: migrations applied")
	return nil
}

func closeDeployment(dep *deployment) {
	if dep.pgPool != nil {
		dep.pgPool.Close()
	}
}

func serverConfig(cfg config.AppConfig) httpapi.Config {
	c := httpapi.DefaultConfig()
	if cfg.HTTP.Host != "" {
		c.Host = cfg.HTTP.Host
	}
	if cfg.HTTP.Port != 0 {
		c.Port = cfg.HTTP.Port
	}
	return c
}

func llmAPIKey(provider string, creds config.Credentials) string {
	switch provider {
	case "anthropic":
		return creds.AnthropicAPIKey
	case "openai":
		return creds.OpenAIAPIKey
	default:
		return ""
	}
}

func cronEveryMinutes(n int) string {
	if n <= 0 {
		n = 10
	}
	return "*/" + strconv.Itoa(n) + " * * * *"
}

func cronEveryHours(n int) string {
	if n <= 0 {
		n = 6
	}
	return "0 */" + strconv.Itoa(n) + " * * *"
}

func defaultNewsFeeds() []sources.NewsFeed {
	return []sources.NewsFeed{
		{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/"},
		{Name: "The Verge AI", URL: "https://www.theverge.com/rss/ai-artificial-intelligence/index.xml"},
		{Name: "Ars Technica", URL: "https://arstechnica.com/feed/"},
	}
}

func defaultJobBoards() []sources.JobBoard {
	return []sources.JobBoard{
		{Company: "OpenAI", BoardURL: "https://boards-api.greenhouse.io/v1/boards/openai/jobs"},
		{Company: "Anthropic", BoardURL: "https://boards-api.greenhouse.io/v1/boards/anthropic/jobs"},
	}
}

func defaultPodcastChannels() []sources.PodcastChannel {
	return []sources.PodcastChannel{
		{Name: "Lex Fridman", ChannelID: "UCSHZKyawb77ixDdsGog4iWA"},
		{Name: "Two Minute Papers", ChannelID: "UCbfYPyITQ-7l4upoX8nvctg"},
	}
}
