// Package app wires application services with infrastructure adapters.
package app

import (
	"context"
	"time"

	"github.com/doeshing/aish/assets"
	"github.com/doeshing/aish/internal/infrastructure/ai"
	"github.com/doeshing/aish/internal/infrastructure/cache"
	"github.com/doeshing/aish/internal/infrastructure/config"
	contextcollector "github.com/doeshing/aish/internal/infrastructure/context"
	"github.com/doeshing/aish/internal/infrastructure/executor"
	"github.com/doeshing/aish/internal/infrastructure/history"
	"github.com/doeshing/aish/internal/infrastructure/router"
	"github.com/doeshing/aish/internal/infrastructure/security"
	"github.com/doeshing/aish/internal/infrastructure/session"
	"github.com/doeshing/aish/internal/infrastructure/workflow"
	"github.com/doeshing/aish/internal/pkg/logger"
	"github.com/doeshing/aish/internal/ports"
	"github.com/doeshing/aish/internal/services"
)

// Container holds the wired dependency graph.
type Container struct {
	RequestService *services.RequestService
	ConfigProvider ports.ConfigProvider
	Validator      ports.Validator
	CacheStore     ports.CacheStore
	Router         ports.Router
	Executor       ports.CommandExecutor
	Engine         ports.WorkflowEngine
	HistoryStore   ports.HistoryRepository
	Session        ports.SessionStore
	Logger         ports.Logger
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.New(verbose || cfg.Preferences.Verbose)

	sessionStore, err := session.NewFileStore("")
	if err != nil {
		return nil, err
	}

	validator, err := security.NewValidator(cfg.Security.PolicyFile)
	if err != nil {
		return nil, err
	}

	cacheStore := cache.NewMemoryCache(cfg.Cache)
	requestRouter, err := router.NewRouter(validator, cacheStore, nil, log)
	if err != nil {
		return nil, err
	}

	execOptions := executor.Options{
		Timeout:     time.Duration(cfg.Execution.TimeoutSeconds) * time.Second,
		HistorySize: cfg.Execution.HistorySize,
	}
	exec := executor.New(validator, sessionStore, log, execOptions)
	factory := &executor.Factory{
		Validator: validator,
		Session:   sessionStore,
		Logger:    log,
		Opts:      execOptions,
	}

	engine := workflow.NewEngine(factory, sessionStore, log)
	if err := registerWorkflows(engine, cfg.Workflows.Dir, log); err != nil {
		return nil, err
	}

	historyStore, err := history.NewSQLiteStore("")
	if err != nil {
		return nil, err
	}
	if err := historyStore.PruneOlderThan(cfg.History.RetentionDays); err != nil {
		log.Warn("prune history failed", map[string]interface{}{"error": err.Error()})
	}

	collector := contextcollector.NewBasicCollector(exec.WorkingDir, exec.History)

	requestService := &services.RequestService{
		ConfigProvider:   cfgLoader,
		ContextCollector: collector,
		Router:           requestRouter,
		Validator:        validator,
		Executor:         exec,
		Assistant:        ai.NewHeuristicAssistant(),
		History:          historyStore,
		Logger:           log,
	}

	return &Container{
		RequestService: requestService,
		ConfigProvider: cfgLoader,
		Validator:      validator,
		CacheStore:     cacheStore,
		Router:         requestRouter,
		Executor:       exec,
		Engine:         engine,
		HistoryStore:   historyStore,
		Session:        sessionStore,
		Logger:         log,
	}, nil
}

// registerWorkflows loads embedded builtins first, then user definitions,
// which may override builtins by id.
func registerWorkflows(engine *workflow.Engine, dir string, log ports.Logger) error {
	builtins, err := assets.BuiltinWorkflows()
	if err != nil {
		return err
	}
	for _, data := range builtins {
		def, err := workflow.Parse(data)
		if err != nil {
			return err
		}
		if err := engine.Define(def); err != nil {
			return err
		}
	}

	defs, err := workflow.LoadDir(dir)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := engine.Define(def); err != nil {
			return err
		}
		log.Debug("registered user workflow", map[string]interface{}{"id": def.ID})
	}
	return nil
}
