package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"oem_consult/config"
	"oem_consult/consult"
	"oem_consult/generator"
	"oem_consult/logger"
	"oem_consult/questionnaire"
	"oem_consult/server"
	"oem_consult/terminal"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to config.json (optional unless set explicitly)")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	mock := flag.Bool("mock", false, "use the offline mock model instead of the configured provider")
	reportPath := flag.String("report", "", "terminal mode: write an HTML transcript to this path on exit")
	noColor := flag.Bool("no-color", false, "terminal mode: disable colours")
	flag.Parse()

	cfg, err := config.Load(*configPath, flagPassed("config"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *mock {
		cfg.LLM.Provider = "mock"
	}

	llm, err := buildLLM(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	agent, err := generator.NewAgent(llm)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Web server mode
	if *serve {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := logger.New(cfg.LogFile, cfg.Production)
		defer log.Sync()

		srv, err := server.New(agent, server.Config{
			Catalog:       catalog,
			HistoryWindow: cfg.Window(),
			SessionTTL:    cfg.SessionTTL(),
			LLMTimeout:    cfg.LLMTimeout(),
		}, log)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		listen := cfg.ServerAddr
		if *addr != "" {
			listen = *addr
		}
		httpSrv := &http.Server{Addr: listen, Handler: srv.Routes()}
		go func() {
			<-ctx.Done()
			_ = httpSrv.Shutdown(context.Background())
		}()
		log.Info("main", "starting web server", map[string]interface{}{"addr": listen, "provider": cfg.LLM.Provider})
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("main", "server stopped", map[string]interface{}{"error": err})
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	log := logger.NewFileOnly(cfg.LogFile)
	defer log.Sync()

	sess := consult.NewSession(uuid.Must(uuid.NewV7()).String(), catalog, agent, consult.Options{HistoryWindow: cfg.Window()})
	log.Info("main", "terminal session started", map[string]interface{}{"session_id": sess.ID, "provider": cfg.LLM.Provider})
	ui := terminal.New(sess, os.Stdin, os.Stdout, log, terminal.Options{NoColor: *noColor, ReportPath: *reportPath})
	if err := ui.Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildLLM(cfg config.Config) (generator.LLMClient, error) {
	switch cfg.LLM.Provider {
	case "mock":
		return generator.MockLLM{}, nil
	case "openai", "deepseek":
		// DeepSeek exposes an OpenAI-compatible endpoint; config requires base_url for it.
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
			Timeout:  cfg.LLMTimeout(),
		})
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}

func loadCatalog(cfg config.Config) (*questionnaire.Catalog, error) {
	if cfg.CatalogPath == "" {
		return questionnaire.DefaultCatalog(), nil
	}
	return questionnaire.LoadCatalog(cfg.CatalogPath)
}

func flagPassed(name string) bool {
	passed := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}
