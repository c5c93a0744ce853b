package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/adapter/httpapi"
	"github.com/Atharva-3000/pearl-monad/internal/adapter/tool"
	"github.com/Atharva-3000/pearl-monad/internal/application/port/input"
	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/application/service"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/chain"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/llm/assistants"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/logger"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/prompts"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/storage/memory"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/storage/postgres"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/swap"
	"github.com/Atharva-3000/pearl-monad/internal/usecase/account"
	"github.com/Atharva-3000/pearl-monad/internal/usecase/chat"
	"github.com/Atharva-3000/pearl-monad/internal/usecase/executor"
	"github.com/Atharva-3000/pearl-monad/internal/usecase/session"
)

type Container struct {
	Logger     output.LoggerPort
	Store      output.Store
	Chain      *chain.Adapter
	Tools      output.ToolRegistry
	Assistants output.AssistantPort
	Session    input.SessionManager
	Driver     input.RunDriver
	Chat       input.ChatService
	Accounts   input.AccountService
	Router     http.Handler
}

type Config struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	AssistantID   string
	AssistantName string

	Chain chain.Config

	ZeroXAPIKey  string
	ZeroXBaseURL string

	Faucet tool.FaucetConfig

	PollInterval     time.Duration
	DailyPromptLimit int
	// DatabaseURL selects the postgres store; empty keeps everything in memory.
	DatabaseURL string

	Log  logger.Config
	HTTP httpapi.Config
}

// LoadConfig reads the service configuration. OPENAI_API_KEY is required.
func LoadConfig(env output.ConfigPort) Config {
	chainCfg := chain.DefaultConfig()
	chainCfg.RPCURL = env.GetWithDefault("RPC_URL", chainCfg.RPCURL)
	chainCfg.ChainID = int64(env.GetInt("CHAIN_ID", int(chainCfg.ChainID)))
	chainCfg.ExplorerURL = env.GetWithDefault("EXPLORER_URL", chainCfg.ExplorerURL)

	faucet := tool.DefaultFaucetConfig(env.Get("FAUCET_PRIVATE_KEY"))
	faucet.Amount = env.GetWithDefault("FAUCET_AMOUNT", faucet.Amount)
	faucet.Cooldown = env.GetDuration("FAUCET_COOLDOWN", faucet.Cooldown)

	appEnv := env.GetWithDefault("APP_ENV", "dev")
	httpCfg := httpapi.DefaultConfig()
	httpCfg.TurnTimeout = env.GetDuration("TURN_TIMEOUT", httpCfg.TurnTimeout)
	httpCfg.LogLevel = env.GetWithDefault("LOG_LEVEL", httpCfg.LogLevel)
	httpCfg.LogJSON = appEnv != "dev"

	return Config{
		OpenAIAPIKey:     env.MustGet("OPENAI_API_KEY"),
		OpenAIBaseURL:    env.GetWithDefault("OPENAI_BASE_URL", assistants.DefaultConfig("").BaseURL),
		OpenAIModel:      env.GetWithDefault("OPENAI_MODEL", "gpt-4o-mini"),
		AssistantID:      env.Get("OPENAI_ASSISTANT_ID"),
		AssistantName:    env.GetWithDefault("ASSISTANT_NAME", "P. E. A. R. L."),
		Chain:            chainCfg,
		ZeroXAPIKey:      env.Get("ZEROX_API_KEY"),
		ZeroXBaseURL:     env.GetWithDefault("ZEROX_BASE_URL", swap.DefaultConfig("").BaseURL),
		Faucet:           faucet,
		PollInterval:     env.GetDuration("POLL_INTERVAL", executor.DefaultPollInterval),
		DailyPromptLimit: env.GetInt("DAILY_PROMPT_LIMIT", 0),
		DatabaseURL:      env.Get("DATABASE_URL"),
		Log: logger.Config{
			Level:       env.GetWithDefault("LOG_LEVEL", "info"),
			Development: appEnv == "dev",
			Dir:         env.Get("LOG_DIR"),
			Service:     "pearl-monad",
		},
		HTTP: httpCfg,
	}
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	c := &Container{Logger: log}

	if c.Store, err = openStore(ctx, cfg.DatabaseURL, log); err != nil {
		c.Close()
		return nil, err
	}

	if c.Chain, err = chain.Dial(ctx, cfg.Chain, log.Named("chain")); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to connect to chain: %w", err)
	}

	swapCfg := swap.DefaultConfig(cfg.ZeroXAPIKey)
	swapCfg.BaseURL = cfg.ZeroXBaseURL
	swapCfg.Logger = log.Named("swap")
	swaps := swap.NewClient(swapCfg)

	registry := service.NewToolRegistry()
	registry.MustRegister(tool.All(tool.Deps{
		Chain:     c.Chain,
		Wallets:   chain.NewWalletProvider(),
		Swaps:     swaps,
		Cooldowns: c.Store,
		Faucet:    cfg.Faucet,
		Logger:    log.Named("tools"),
	})...)
	c.Tools = registry

	instructions, err := prompts.GenerateAssistantPrompt(prompts.AssistantPrompt, cfg.AssistantName, prompts.Network{
		Name:         "Monad Testnet",
		ChainID:      fmt.Sprint(cfg.Chain.ChainID),
		NativeSymbol: "MON",
		Tokens:       cfg.Chain.Tokens,
	}, registry)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to render assistant instructions: %w", err)
	}

	llmCfg := assistants.DefaultConfig(cfg.OpenAIAPIKey)
	llmCfg.BaseURL = cfg.OpenAIBaseURL
	llmCfg.Logger = log.Named("openai")
	c.Assistants = assistants.NewAdapter(llmCfg)

	c.Session = session.New(c.Assistants, registry, log.Named("session"), session.Config{
		Name:         cfg.AssistantName,
		Model:        cfg.OpenAIModel,
		Instructions: instructions,
		AssistantID:  cfg.AssistantID,
	})
	c.Driver = executor.New(c.Assistants, registry, log.Named("run"), cfg.PollInterval)
	c.Chat = chat.NewService(c.Store, c.Session, c.Driver, log.Named("chat"), chat.Config{
		DailyPromptLimit: cfg.DailyPromptLimit,
	})
	c.Accounts = account.NewService(c.Store, c.Store, chain.NewWalletProvider(), log.Named("accounts"), nil)
	c.Router = httpapi.NewRouter(c.Chat, c.Accounts, log, cfg.HTTP)

	return c, nil
}

func openStore(ctx context.Context, databaseURL string, log output.LoggerPort) (output.Store, error) {
	if databaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory storage")
		return memory.New(), nil
	}
	if err := postgres.MigrateUp(databaseURL); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	store, err := postgres.Open(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

func (c *Container) Close() {
	if c.Chain != nil {
		c.Chain.Close()
	}
	if c.Store != nil {
		c.Store.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
