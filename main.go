// corpquery answers natural-language questions about companies. It refines
// the question, retrieves from the best-fitting backend, checks the answer's
// sufficiency, and cross-verifies it against two web searches before
// printing a cited result.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/corpquery/corpquery/internal/config"
	"github.com/corpquery/corpquery/internal/evaluation"
	"github.com/corpquery/corpquery/internal/handlers"
	"github.com/corpquery/corpquery/internal/llm"
	"github.com/corpquery/corpquery/internal/pipeline"
	"github.com/corpquery/corpquery/internal/providers"
	"github.com/corpquery/corpquery/internal/query"
	"github.com/corpquery/corpquery/internal/verify"
)

const banner = `
Welcome! I am an AI assistant that will help you with your company-related queries.
I can provide information about a company you want, including:
 • General information (e.g. location, history, products, investment portfolio)
 • Financial information (e.g. stocks, market performance, projections)
 • Recent news and updates

After I answer your question, I will cite my sources as hyperlinks so that you can check for more details.
 • On Mac: Press ` + "\x1b[1mCommand (⌘) + Click\x1b[0m" + ` on a link to open it in your browser.
 • On Windows (PowerShell, Windows Terminal): Press ` + "\x1b[1mCtrl + Click\x1b[0m" + ` to access the source directly.
 • On Windows Command Prompt (cmd.exe): Hyperlinks are not supported, so please ` + "\x1b[1mcopy and paste\x1b[0m" + ` the link into your browser.

Start by asking me a question about a company, and I'll do my best to help you out!
`

func main() {
	debug := pflag.BoolP("debug", "d", false, "log every pipeline stage transition")
	pflag.Parse()

	// A missing .env is fine; config falls back to the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "corpquery: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corpquery: init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !stdinIsTerminal() {
		time.Sleep(time.Second)
		fmt.Println("\n >> Hey there! This program requires user input. You should run the container with `-it` flag.")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator := buildOrchestrator(cfg, logger)
	stdin := bufio.NewScanner(os.Stdin)

	fmt.Print(banner)
	for {
		question := prompt(stdin, " >> So, what would you like to look up today?  ")
		if question == "" {
			fmt.Println(" >> Understood. Have a great day!")
			return
		}

		result, err := orchestrator.Answer(ctx, question, func(followUp string) (string, error) {
			answer := prompt(stdin, fmt.Sprintf(" >> %s  ", followUp))
			if answer == "" {
				return "", fmt.Errorf("no clarification provided")
			}
			return answer, nil
		})
		if err != nil {
			logger.Error("session failed", zap.Error(err))
			fmt.Println("\n >> Something went wrong on my end. Please try again in a moment.")
			return
		}

		if result.NotTraded {
			fmt.Printf(" >> It looks like %s\n", result.Reason)
			again := prompt(stdin, " >> Would you like to search something else? (y/n)  ")
			if a := strings.ToLower(again); a == "y" || a == "yes" {
				continue
			}
			time.Sleep(time.Second)
			fmt.Println(" >> Understood. Have a great day!")
			return
		}

		fmt.Printf("\n%s\n\n", result.Text)
		return
	}
}

func buildOrchestrator(cfg *config.Config, logger *zap.Logger) *pipeline.Orchestrator {
	model := llm.NewClient(cfg.Model, logger)
	retries := cfg.Providers.MaxRetries

	wiki := handlers.WikipediaSource{
		Client: providers.NewWikipedia(cfg.Providers.Wikipedia, retries, logger),
	}
	quotes := providers.NewQuoteClient(cfg.Providers.Quote, retries, logger)
	tavily := providers.NewTavily(cfg.Providers.SearchA, retries, logger)
	serper := providers.NewSerper(cfg.Providers.SearchB, retries, logger)

	tavilyTool := handlers.NewSearchTool(tavily)
	tools := []handlers.Tool{
		handlers.NewWikipediaTool(wiki),
		handlers.NewSearchTool(serper),
		tavilyTool,
	}

	hs := map[handlers.HandlerID]handlers.Handler{
		handlers.HandlerFinancial:    handlers.NewFinancial(model, quotes, logger),
		handlers.HandlerEncyclopedic: handlers.NewEncyclopedic(model, wiki, logger),
		handlers.HandlerGeneric:      handlers.NewGeneric(model, tools, tavilyTool, logger),
	}

	return pipeline.New(
		query.NewDisambiguator(model, logger),
		hs,
		evaluation.NewEvaluator(model, logger),
		verify.New(model, tavily, serper, cfg.Pipeline.MaxExtraSources, logger),
		cfg.Pipeline.MaxRetries,
		logger,
	)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	// Keep the interactive transcript clean; structured logs go to stderr
	// at warn and above.
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func prompt(in *bufio.Scanner, text string) string {
	fmt.Print(text)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}
