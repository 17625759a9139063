// Campusmate is a tool-using student assistant agent.
//
// It augments a local language model with Canvas LMS tools, web search,
// and a persistent project-scoped conversation memory. Configuration is
// loaded from a YAML file discovered automatically (see
// [config.DefaultSearchPaths]); credentials may also come from the
// environment.
//
// Usage:
//
//	campusmate chat                      Interactive chat session
//	campusmate ask <question>            Ask a single question
//	campusmate projects list             List projects
//	campusmate projects create <name>    Create a project
//	campusmate projects delete <id>      Delete a project
//	campusmate status                    Show memory statistics
//	campusmate init                      Write an example config file
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ewhitley/campusmate/examples"
	"github.com/ewhitley/campusmate/internal/agent"
	"github.com/ewhitley/campusmate/internal/canvas"
	"github.com/ewhitley/campusmate/internal/config"
	"github.com/ewhitley/campusmate/internal/fetch"
	"github.com/ewhitley/campusmate/internal/llm"
	"github.com/ewhitley/campusmate/internal/memory"
	"github.com/ewhitley/campusmate/internal/search"
	"github.com/ewhitley/campusmate/internal/summary"
	"github.com/ewhitley/campusmate/internal/tools"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run], keeping
// os.Exit and os.Args out of the application logic.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	fs := flag.NewFlagSet("campusmate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	projectID := fs.Int64("project", 0, "project id scope (0 = default project)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// init runs before config loading; it exists to create the config.
	if fs.Arg(0) == "init" {
		return writeExampleConfig(stdout, *configPath)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	app, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.store.Close()

	switch fs.Arg(0) {
	case "", "chat":
		return app.chat(ctx, stdin, stdout, *projectID)
	case "ask":
		question := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
		if question == "" {
			return errors.New("usage: campusmate ask <question>")
		}
		reply, err := app.loop.HandleTurn(ctx, question, *projectID)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, reply)
		return nil
	case "projects":
		return app.projects(stdout, fs.Args()[1:])
	case "status":
		return app.status(stdout, *projectID)
	default:
		return fmt.Errorf("unknown command %q (valid: chat, ask, projects, status, init)", fs.Arg(0))
	}
}

// writeExampleConfig writes the embedded example config. It refuses to
// overwrite an existing file.
func writeExampleConfig(stdout io.Writer, path string) error {
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists; not overwriting", path)
	}
	if err := os.WriteFile(path, examples.ConfigYAML, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s. Fill in your Canvas and search credentials.\n", path)
	return nil
}

func loadConfig(explicit string) (*config.Config, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, err
		}
		// No config file is fine; env vars carry the credentials.
		return config.FromEnv()
	}
	return config.Load(path)
}

// app bundles the wired components behind the CLI commands.
type app struct {
	store  *memory.Store
	loop   *agent.Loop
	llm    llm.Client
	logger *slog.Logger
}

func buildApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := memory.NewStore(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}

	client := llm.NewOllamaClient(cfg.Ollama.URL)
	policy := summary.NewPolicy(store, client, cfg.Ollama.Model, logger)

	mgr := search.NewManager("serpapi")
	if cfg.Search.SerpAPIKey != "" {
		mgr.Register(search.NewSerpAPI(cfg.Search.SerpAPIKey))
	}
	web := search.NewWebTool(mgr, fetch.New(), logger)

	registry := tools.NewRegistry()
	tools.RegisterBuiltins(registry, tools.Deps{
		Canvas: canvas.NewClient(cfg.Canvas.BaseURL, cfg.Canvas.Token),
		Web:    web,
		Store:  store,
		Logger: logger,
	})

	loop := agent.NewLoop(store, registry, client, policy, cfg.Ollama.Model, cfg.HistoryLimit, logger)
	return &app{store: store, loop: loop, llm: client, logger: logger}, nil
}

// chat runs the interactive prompt loop until EOF or interrupt.
func (a *app) chat(ctx context.Context, stdin io.Reader, stdout io.Writer, projectID int64) error {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := a.llm.Ping(pingCtx); err != nil {
		a.logger.Warn("model backend unreachable", "error", err)
		fmt.Fprintln(stdout, "Warning: cannot reach the model backend. Is Ollama running?")
	}
	cancel()

	fmt.Fprintln(stdout, "Campusmate is running. Type your question, or Ctrl+D to stop.")

	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(stdout)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}

		reply, err := a.loop.HandleTurn(ctx, message, projectID)
		if err != nil {
			// Model failures surface as a generic message; internals
			// go to the log, not the user.
			a.logger.Error("turn failed", "error", err)
			fmt.Fprintln(stdout, "Sorry, something went wrong handling that. Please try again.")
			continue
		}
		fmt.Fprintf(stdout, "%s\n\n", reply)
	}
}

func (a *app) projects(stdout io.Writer, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		projects, err := a.store.ListProjects()
		if err != nil {
			return err
		}
		for _, p := range projects {
			marker := " "
			if p.ID == a.store.DefaultProjectID() {
				marker = "*"
			}
			fmt.Fprintf(stdout, "%s %d  %-20s %4d messages  updated %s\n",
				marker, p.ID, p.Name, p.MessageCount, p.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil

	case "create":
		if len(args) < 2 {
			return errors.New("usage: campusmate projects create <name> [description]")
		}
		description := strings.Join(args[2:], " ")
		id, err := a.store.CreateProject(args[1], description, "")
		if errors.Is(err, memory.ErrDuplicateName) {
			return fmt.Errorf("a project named %q already exists", args[1])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Created project %d (%s)\n", id, args[1])
		return nil

	case "delete":
		if len(args) < 2 {
			return errors.New("usage: campusmate projects delete <id>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid project id %q", args[1])
		}
		ok, err := a.store.DeleteProject(id)
		if errors.Is(err, memory.ErrDefaultProject) {
			return errors.New("the default project cannot be deleted")
		}
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("project %d not found", id)
		}
		fmt.Fprintf(stdout, "Deleted project %d\n", id)
		return nil

	default:
		return fmt.Errorf("unknown projects command %q (valid: list, create, delete)", args[0])
	}
}

func (a *app) status(stdout io.Writer, projectID int64) error {
	count, err := a.store.CountMessages(projectID)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Messages: %d\n", count)

	digest, err := a.store.Digest(7, projectID)
	if err != nil {
		return err
	}
	if digest != "" {
		fmt.Fprintln(stdout, digest)
	}

	if s, err := a.store.Summary(projectID); err == nil && s != "" {
		fmt.Fprintf(stdout, "Summary:\n%s\n", s)
	}
	return nil
}
