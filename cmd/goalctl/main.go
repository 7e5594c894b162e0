// Command goalctl drives the goals API from a terminal, keeping a local
// cache of goals, milestones, the journal, widgets and achievements.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"stickygoals/internal/client"
	"stickygoals/internal/clientstate"
)

func defaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "goalctl")
	}
	return ".goalctl"
}

type app struct {
	api    *client.Client
	state  *clientstate.Store
	logger *zap.Logger
	token  string // path of the saved token
}

// setup builds the client and state store from global flags. Commands that
// need them call it first.
func setup(c *cli.Context) (*app, error) {
	logger := zap.NewNop()
	if c.Bool("verbose") {
		l, err := zap.NewDevelopment()
		if err == nil {
			logger = l
		}
	}
	tokenPath := c.String("token-file")
	token := c.String("token")
	if token == "" {
		if b, err := os.ReadFile(tokenPath); err == nil {
			token = strings.TrimSpace(string(b))
		}
	}
	api := client.New(c.String("api"), client.NewSession(token), logger)
	st, err := clientstate.Open(api, clientstate.NewFileCache(c.String("cache")), logger)
	if err != nil {
		return nil, err
	}
	return &app{api: api, state: st, logger: logger, token: tokenPath}, nil
}

func (a *app) saveToken() error {
	if err := os.MkdirAll(filepath.Dir(a.token), 0o700); err != nil {
		return err
	}
	return os.WriteFile(a.token, []byte(a.api.Session().Token()+"\n"), 0o600)
}

// action adapts a command body that needs the app.
func action(fn func(*cli.Context, *app) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		a, err := setup(c)
		if err != nil {
			return err
		}
		defer a.logger.Sync()
		return friendly(fn(c, a))
	}
}

func friendly(err error) error {
	if err == nil {
		return nil
	}
	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		return err
	}
	if errors.Is(err, client.ErrUnauthenticated) {
		return cli.Exit("not signed in: run `goalctl login` or set GOALS_TOKEN", 1)
	}
	var rf *client.RequestFailedError
	if errors.As(err, &rf) && rf.Message != "" {
		return cli.Exit(fmt.Sprintf("server said %d: %s", rf.Status, rf.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

func main() {
	dir := defaultDir()
	cliApp := &cli.App{
		Name:  "goalctl",
		Usage: "track goals, milestones and a journal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Value: "http://localhost:8080", Usage: "API base URL", EnvVars: []string{"GOALS_API_URL"}},
			&cli.StringFlag{Name: "token", Usage: "bearer token (overrides the saved one)", EnvVars: []string{"GOALS_TOKEN"}},
			&cli.StringFlag{Name: "token-file", Value: filepath.Join(dir, "token"), Usage: "where login saves the token"},
			&cli.StringFlag{Name: "cache", Value: filepath.Join(dir, "cache.json"), Usage: "local state file", EnvVars: []string{"GOALS_CACHE"}},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log requests"},
		},
		Commands: commands(),
	}
	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
