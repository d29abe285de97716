package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PabloGalante/guideon/internal/adapters/auth"
	httpadapter "github.com/PabloGalante/guideon/internal/adapters/http"
	"github.com/PabloGalante/guideon/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/guideon/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/guideon/internal/adapters/storage/memory"
	"github.com/PabloGalante/guideon/internal/app/conversation"
	"github.com/PabloGalante/guideon/internal/app/history"
	"github.com/PabloGalante/guideon/internal/app/rotation"
	"github.com/PabloGalante/guideon/internal/config"
	"github.com/PabloGalante/guideon/internal/domain"
	"github.com/PabloGalante/guideon/internal/envelope"
	"github.com/PabloGalante/guideon/internal/observability"
	"github.com/PabloGalante/guideon/internal/ratelimit"
	"github.com/PabloGalante/guideon/internal/seed"
)

func main() {
	if err := run(); err != nil {
		observability.Logger().Error("guideon api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := observability.Init(cfg.LogLevel)
	log.Info("starting guideon api", "mode", cfg.Mode, "storage", cfg.StorageBackend, "llm", cfg.LLMProvider)

	env, err := envelope.FromConfig(cfg.EncryptionKey)
	switch {
	case errors.Is(err, envelope.ErrEmptyKey):
		log.Info("chat encryption disabled, storing plaintext")
	case err != nil:
		log.Warn("invalid CHAT_ENCRYPTION_KEY, storing plaintext", "error", err)
	}

	// Storage: Firestore or Memory
	var (
		content domain.ContentSource
		cursors domain.RotationStore
		chats   domain.ChatLogStore
	)
	switch cfg.StorageBackend {
	case "firestore":
		log.Info("using firestore storage", "project", cfg.FirebaseProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.FirebaseProjectID)
		if err != nil {
			return err
		}
		defer fsStore.Close()

		// 1 store, implements 3 interfaces
		content, cursors, chats = fsStore, fsStore, fsStore
	default:
		log.Info("using in-memory storage")
		items := []domain.ThemedItem{}
		if cfg.ContentSeedFile != "" {
			items, err = seed.LoadFile(cfg.ContentSeedFile)
			if err != nil {
				return err
			}
			log.Info("loaded content seed", "file", cfg.ContentSeedFile, "items", len(items))
		}
		content = memstore.NewContentStore(items...)
		cursors = memstore.NewRotationStore()
		chats = memstore.NewChatLogStore()
	}

	llmClient, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}

	var verifier domain.IdentityVerifier
	if cfg.RequireAuth {
		fv, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, func(err error) {
			log.Warn("jwks refresh failed", "error", err)
		})
		if err != nil {
			return err
		}
		defer fv.Close()
		verifier = fv
	} else {
		log.Warn("REQUIRE_AUTH=false, every request runs as dev-bypass")
		verifier = auth.NewStaticVerifier("")
	}

	var limiter httpadapter.RateLimiter
	if cfg.RedisAddr != "" && cfg.RateLimitPerMinute > 0 {
		rl, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "", cfg.RateLimitPerMinute, time.Minute)
		if err != nil {
			return err
		}
		defer rl.Close()
		limiter = rl
	}

	metrics := observability.NewMetrics()

	var recorder *history.Recorder
	if cfg.PersistHistory {
		recorder = history.NewRecorder(chats, env)
	}

	svc := conversation.NewService(conversation.Deps{
		LLM:      llmClient,
		Content:  content,
		Selector: rotation.NewSelector(cursors, nil),
		Recorder: recorder,
		Reader:   history.NewReader(chats, env).WithMaxDays(cfg.HistoryMaxDays),
		Metrics:  metrics,
	})

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpadapter.NewServer(svc, httpadapter.Options{
			Verifier:   verifier,
			Limiter:    limiter,
			Metrics:    metrics,
			CORSOrigin: cfg.CORSOrigin,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.LLMTimeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("guideon api listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLLMClient(ctx context.Context, cfg *config.Config) (domain.LLMClient, error) {
	switch cfg.LLMProvider {
	case "mock":
		return llm.NewMockLLM(), nil
	case "vertex":
		return llm.NewVertexClient(ctx, llm.VertexConfig{
			ProjectID:   cfg.FirebaseProjectID,
			Location:    cfg.GCPLocation,
			Model:       cfg.VertexModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	default:
		return llm.NewDeepSeekClient(llm.DeepSeekConfig{
			BaseURL:     cfg.DeepSeekURL,
			APIKey:      cfg.DeepSeekAPIKey,
			Model:       cfg.DeepSeekModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.LLMTimeout,
		})
	}
}
