package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"stickygoals/internal/client"
	"stickygoals/internal/clientstate"
	"stickygoals/internal/models"
)

func args(c *cli.Context, n int, usage string) ([]string, error) {
	if c.NArg() < n {
		return nil, cli.Exit("usage: goalctl "+c.Command.FullName()+" "+usage, 2)
	}
	return c.Args().Slice(), nil
}

func index(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 1 {
		return 0, cli.Exit("suggestion index must be a number from the list (1, 2, ...)", 2)
	}
	return i - 1, nil
}

func table() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func mark(b bool) string {
	if b {
		return "[x]"
	}
	return "[ ]"
}

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "signup",
			Usage: "create a local account",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "email", Required: true},
				&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"GOALS_PASSWORD"}},
				&cli.StringFlag{Name: "name"},
			},
			Action: action(func(c *cli.Context, a *app) error {
				p, err := a.api.Signup(c.Context, c.String("email"), c.String("password"), c.String("name"))
				if err != nil {
					return err
				}
				fmt.Printf("signed up as %s\n", p.Email)
				return a.saveToken()
			}),
		},
		{
			Name:  "login",
			Usage: "sign in and save the token",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "email", Required: true},
				&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"GOALS_PASSWORD"}},
			},
			Action: action(func(c *cli.Context, a *app) error {
				p, err := a.api.Login(c.Context, c.String("email"), c.String("password"))
				if err != nil {
					return err
				}
				fmt.Printf("signed in as %s\n", p.Email)
				return a.saveToken()
			}),
		},
		{
			Name:  "logout",
			Usage: "forget the saved token",
			Action: action(func(c *cli.Context, a *app) error {
				a.api.Session().Clear()
				if err := os.Remove(a.token); err != nil && !os.IsNotExist(err) {
					return err
				}
				return nil
			}),
		},
		{
			Name:  "me",
			Usage: "show the signed-in profile",
			Action: action(func(c *cli.Context, a *app) error {
				p, err := a.api.Me(c.Context)
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\t%s\n", p.ID, p.Email, p.DisplayName)
				return nil
			}),
		},
		{
			Name:   "sync",
			Usage:  "reload goals, milestones and journal from the server",
			Action: action(func(c *cli.Context, a *app) error { return a.state.Refresh(c.Context) }),
		},
		{
			Name:  "reset",
			Usage: "clear the local cache, widgets and achievements",
			Action: action(func(c *cli.Context, a *app) error {
				return a.state.Reset()
			}),
		},
		goalsCommand(),
		milestonesCommand(),
		journalCommand(),
		suggestCommand(),
		widgetsCommand(),
		{
			Name:  "achievements",
			Usage: "show counters recomputed from the local cache",
			Flags: []cli.Flag{&cli.BoolFlag{Name: "json"}},
			Action: action(func(c *cli.Context, a *app) error {
				ach := a.state.Achievements()
				if c.Bool("json") {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(map[string]any{"counters": ach, "badges": ach.Badges()})
				}
				w := table()
				fmt.Fprintf(w, "goals\t%d\n", ach.Goals)
				fmt.Fprintf(w, "completed goals\t%d\n", ach.CompletedGoals)
				fmt.Fprintf(w, "milestones\t%d\n", ach.Milestones)
				fmt.Fprintf(w, "accepted suggestions\t%d\n", ach.AcceptedSuggestions)
				fmt.Fprintf(w, "journal entries\t%d\n", ach.JournalEntries)
				fmt.Fprintf(w, "pinned goals\t%d\n", ach.PinnedGoals)
				for _, b := range ach.Badges() {
					fmt.Fprintf(w, "%s\t%s\n", mark(b.Earned), b.Name)
				}
				return w.Flush()
			}),
		},
	}
}

func goalsCommand() *cli.Command {
	return &cli.Command{
		Name:  "goals",
		Usage: "list and manage goals",
		Action: action(func(c *cli.Context, a *app) error {
			w := table()
			for _, g := range a.state.Goals() {
				pin := ""
				if g.Pinned {
					pin = "*"
				}
				fmt.Fprintf(w, "%s%s\t%s\t%s\t%d milestones\n", pin, g.ID, g.Text, g.State, len(g.Milestones))
			}
			return w.Flush()
		}),
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				ArgsUsage: "<text>",
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 1, "<text>")
					if err != nil {
						return err
					}
					return a.state.AddGoal(c.Context, in[0])
				}),
			},
			{
				Name:      "delete",
				ArgsUsage: "<goal-id>",
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 1, "<goal-id>")
					if err != nil {
						return err
					}
					return a.state.DeleteGoal(c.Context, in[0])
				}),
			},
			{
				Name:      "status",
				Usage:     "ask the server for the derived state",
				ArgsUsage: "<goal-id>",
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 1, "<goal-id>")
					if err != nil {
						return err
					}
					st, err := a.api.GoalStatus(c.Context, in[0])
					if err != nil {
						return err
					}
					fmt.Println(st)
					return nil
				}),
			},
			{
				Name:      "pin",
				ArgsUsage: "<goal-id>",
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 1, "<goal-id>")
					if err != nil {
						return err
					}
					return a.state.Pin(in[0])
				}),
			},
			{
				Name:      "unpin",
				ArgsUsage: "<goal-id>",
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 1, "<goal-id>")
					if err != nil {
						return err
					}
					return a.state.Unpin(in[0])
				}),
			},
		},
	}
}

func milestonesCommand() *cli.Command {
	return &cli.Command{
		Name:      "milestones",
		Usage:     "list and manage a goal's milestones",
		ArgsUsage: "<goal-id>",
		Action: action(func(c *cli.Context, a *app) error {
			in, err := args(c, 1, "<goal-id>")
			if err != nil {
				return err
			}
			g, ok := a.state.Goal(in[0])
			if !ok {
				return clientstate.ErrUnknownGoal
			}
			w := table()
			for _, m := range g.Milestones {
				fmt.Fprintf(w, "%s\t%s\t%s\n", mark(m.Checked), m.ID, m.Text)
			}
			return w.Flush()
		}),
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				ArgsUsage: "<goal-id> <text>",
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 2, "<goal-id> <text>")
					if err != nil {
						return err
					}
					m, err := a.state.AddMilestone(c.Context, in[0], in[1])
					if err != nil {
						return err
					}
					fmt.Println(m.ID)
					return nil
				}),
			},
			{
				Name:      "toggle",
				ArgsUsage: "<goal-id> <milestone-id>",
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 2, "<goal-id> <milestone-id>")
					if err != nil {
						return err
					}
					checked, err := a.state.ToggleMilestone(c.Context, in[0], in[1])
					if err != nil {
						return err
					}
					fmt.Println(mark(checked))
					return nil
				}),
			},
			{
				Name:      "edit",
				Usage:     "change the text in the local cache only",
				ArgsUsage: "<goal-id> <milestone-id> <text>",
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 3, "<goal-id> <milestone-id> <text>")
					if err != nil {
						return err
					}
					return a.state.EditMilestoneText(in[0], in[1], in[2])
				}),
			},
			{
				Name:      "delete",
				ArgsUsage: "<goal-id> <milestone-id>",
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 2, "<goal-id> <milestone-id>")
					if err != nil {
						return err
					}
					return a.state.DeleteMilestone(c.Context, in[0], in[1])
				}),
			},
		},
	}
}

func journalCommand() *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "show or add journal entries",
		Action: action(func(c *cli.Context, a *app) error {
			w := table()
			for _, e := range a.state.Journal() {
				ms := ""
				if e.Milestone != nil {
					ms = *e.Milestone
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Date, e.GoalLabel, ms, e.Response)
			}
			return w.Flush()
		}),
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				ArgsUsage: "<response>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "goal", Usage: "goal text"},
					&cli.StringFlag{Name: "goal-id", Usage: "goal id (instead of --goal)"},
					&cli.StringFlag{Name: "milestone"},
					&cli.StringFlag{Name: "date", Value: time.Now().Format("2006-01-02")},
				},
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 1, "[--goal text | --goal-id id] <response>")
					if err != nil {
						return err
					}
					ref := models.GoalByLabel(c.String("goal"))
					if id := c.String("goal-id"); id != "" {
						ref = models.GoalByID(id)
					}
					entry := client.JournalInput{Goal: ref, Response: in[0], Date: c.String("date")}
					if ms := c.String("milestone"); ms != "" {
						entry.Milestone = &ms
					}
					return a.state.AddJournalEntry(c.Context, entry)
				}),
			},
		},
	}
}

func suggestCommand() *cli.Command {
	printPending := func(a *app, goalID string) {
		for i, s := range a.state.PendingSuggestions(goalID) {
			fmt.Printf("%d. %s\n", i+1, s)
		}
	}
	return &cli.Command{
		Name:      "suggest",
		Usage:     "ask for steps toward a goal",
		ArgsUsage: "<goal-id>",
		Action: action(func(c *cli.Context, a *app) error {
			in, err := args(c, 1, "<goal-id>")
			if err != nil {
				return err
			}
			if _, err := a.state.Suggest(c.Context, in[0]); err != nil {
				return err
			}
			printPending(a, in[0])
			return nil
		}),
		Subcommands: []*cli.Command{
			{
				Name:      "accept",
				Usage:     "turn a suggestion into a milestone",
				ArgsUsage: "<goal-id> <n>",
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 2, "<goal-id> <n>")
					if err != nil {
						return err
					}
					i, err := index(in[1])
					if err != nil {
						return err
					}
					m, err := a.state.AcceptSuggestion(c.Context, in[0], i)
					if err != nil {
						return err
					}
					fmt.Printf("added milestone %s\n", m.ID)
					printPending(a, in[0])
					return nil
				}),
			},
			{
				Name:      "reject",
				ArgsUsage: "<goal-id> <n>",
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 2, "<goal-id> <n>")
					if err != nil {
						return err
					}
					i, err := index(in[1])
					if err != nil {
						return err
					}
					if err := a.state.RejectSuggestion(in[0], i); err != nil {
						return err
					}
					printPending(a, in[0])
					return nil
				}),
			},
		},
	}
}

func widgetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "widgets",
		Usage: "arrange local board widgets",
		Action: action(func(c *cli.Context, a *app) error {
			w := table()
			for _, wd := range a.state.Widgets() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", wd.Position, wd.ID, wd.Type, wd.Content, wd.GoalLabel)
			}
			return w.Flush()
		}),
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				ArgsUsage: "<quote|image|playlist|habit> <content>",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "goal", Usage: "related goal text"}},
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 2, "<quote|image|playlist|habit> <content>")
					if err != nil {
						return err
					}
					t, err := clientstate.ParseWidgetType(in[0])
					if err != nil {
						return err
					}
					wd, err := a.state.AddWidget(t, in[1], c.String("goal"))
					if err != nil {
						return err
					}
					fmt.Println(wd.ID)
					return nil
				}),
			},
			{
				Name:      "remove",
				ArgsUsage: "<widget-id>",
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 1, "<widget-id>")
					if err != nil {
						return err
					}
					return a.state.RemoveWidget(in[0])
				}),
			},
			{
				Name:      "move",
				ArgsUsage: "<widget-id> <position>",
				Action: action(func(c *cli.Context, a *app) error {
					in, err := args(c, 2, "<widget-id> <position>")
					if err != nil {
						return err
					}
					pos, err := strconv.Atoi(in[1])
					if err != nil {
						return cli.Exit("position must be a number", 2)
					}
					return a.state.MoveWidget(in[0], pos)
				}),
			},
		},
	}
}
