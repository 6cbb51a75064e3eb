package main

import (
	"context"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/jonathan/site-assistant/internal/acquire"
	"github.com/jonathan/site-assistant/internal/config"
	"github.com/jonathan/site-assistant/internal/conversation"
	"github.com/jonathan/site-assistant/internal/fetch"
	"github.com/jonathan/site-assistant/internal/llm"
	"github.com/jonathan/site-assistant/internal/observability"
	"github.com/jonathan/site-assistant/internal/rendering"
	"github.com/jonathan/site-assistant/internal/session"
	"github.com/jonathan/site-assistant/internal/sitemap"
	"github.com/jonathan/site-assistant/internal/store"
)

// app holds what every command needs: resolved config, logger, store and session.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	kv      store.KV
	state   *session.State
	printer *observability.Printer
	closers []func()
}

// resolveConfig applies, in increasing precedence: defaults, config file, environment, flags.
func resolveConfig() (config.Config, error) {
	file := &config.Config{}
	if rootConfigPath != "" {
		loaded, err := config.LoadConfig(rootConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		file = loaded
	}

	cfg := file.MergeWithDefaults(config.Defaults())
	cfg.ApplyEnv()
	if rootStatePath != "" {
		cfg.StatePath = rootStatePath
	}
	if rootVerbose {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openApp resolves config, opens the store and loads the session.
func openApp(ctx context.Context, out io.Writer) (*app, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.Verbose)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, printer: observability.NewPrinter(out)}
	a.printer.RenderedTurns = cfg.RenderMarkdown
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	kv, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.kv = kv

	state, err := session.Load(ctx, kv, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	if cfg.APIKey != "" {
		state.Credential = cfg.APIKey
	}
	if cfg.KnowledgeStoreID != "" {
		state.KnowledgeStoreID = cfg.KnowledgeStoreID
	}
	a.state = state
	return a, nil
}

// openStore uses the state file, or Postgres scoped to the session id kept in that file.
func (a *app) openStore(ctx context.Context) (store.KV, error) {
	file := store.NewFile(a.cfg.StatePath)
	if a.cfg.DatabaseURL == "" {
		return file, nil
	}

	id, err := session.EnsureID(ctx, file)
	if err != nil {
		return nil, err
	}
	pg, err := store.ConnectPostgres(ctx, a.cfg.DatabaseURL, id)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pg.Close)
	a.logger.Debug("using postgres store", zap.String("session_id", id.String()))
	return pg, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) chain() *acquire.Chain {
	return acquire.NewDefaultChain(a.cfg.AcquireConfig(), nil, a.logger)
}

func (a *app) discoverer() *sitemap.Discoverer {
	acq := a.cfg.AcquireConfig()
	d := sitemap.NewDiscoverer(acquire.NewRelayRetriever(acq, a.logger), a.logger)
	d.Limit = a.cfg.MaxDiscovered
	if a.cfg.SitemapServiceEndpoint != "" {
		opts := fetch.DefaultOptions()
		opts.Timeout = acq.HTTPTimeout
		d.Service = &sitemap.ServiceClient{Endpoint: a.cfg.SitemapServiceEndpoint, Options: opts}
	}
	return d
}

func (a *app) manager(discover bool) *session.Manager {
	m := &session.Manager{
		State:   a.state,
		Store:   a.kv,
		Fetcher: a.chain(),
		Logger:  a.logger,
	}
	if discover {
		m.Discoverer = a.discoverer()
	}
	return m
}

func (a *app) chatSession(in io.Reader, status io.Writer) (*session.ChatSession, error) {
	tier, err := llm.ParseTier(a.cfg.ModelTier)
	if err != nil {
		return nil, err
	}
	mode, err := conversation.ParseMode(a.cfg.ContentMode)
	if err != nil {
		return nil, err
	}
	models := llm.DefaultConfig()
	if a.cfg.Model != "" {
		models = models.WithModel(tier, a.cfg.Model)
	}

	assembler, err := conversation.NewAssembler(models.GetModel(tier), a.cfg.TemperatureValue())
	if err != nil {
		return nil, err
	}
	assembler.Mode = mode
	assembler.HistoryLimit = a.cfg.HistoryLimit
	assembler.KnowledgeStoreID = a.cfg.KnowledgeStoreID

	chat := &session.ChatSession{
		State:     a.state,
		Store:     a.kv,
		Assembler: assembler,
		Dial: func(ctx context.Context, credential string) (llm.Client, error) {
			client, err := llm.NewClient(ctx, models, credential, a.logger)
			if err == nil {
				a.closers = append(a.closers, func() { _ = client.Close() })
			}
			return client, err
		},
		UI:     &terminalUI{out: status},
		Prompt: &terminalPrompter{in: in, out: status},
		Logger: a.logger,
	}
	if a.cfg.RenderMarkdown {
		chat.Render = rendering.Markdown
	}
	return chat, nil
}

// withApp opens the app for a command and always releases it.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

var errNoSources = errors.New("no sources loaded; add one with: site_agent add <url>")
