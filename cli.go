package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// rootOptions хранит глобальные флаги командной строки.
type rootOptions struct {
	dbPath string
}

// loadConfig читает конфигурацию и применяет флаг --db.
func (o *rootOptions) loadConfig() (Config, error) {
	config, err := LoadConfig()
	if err != nil {
		return Config{}, err
	}
	if o.dbPath != "" {
		config.DBPath = o.dbPath
	}
	return config, nil
}

// openStore открывает хранилище по конфигурации.
func (o *rootOptions) openStore() (*Store, Config, error) {
	config, err := o.loadConfig()
	if err != nil {
		return nil, Config{}, err
	}
	store, err := NewStore(config.DatabaseURL, config.DBPath)
	if err != nil {
		return nil, Config{}, err
	}
	return store, config, nil
}

// NewRootCmd создает корневую команду. Без подкоманды запускает бота.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "largo",
		Short: "Telegram secretary bot for tasks and ideas",
		Long: `largo stores every Telegram message as a task, or as an idea when it
starts with "idea:" or "идея:", and answers /today, /tasks and /ideas.

Running largo without a subcommand starts the bot.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return runServe(config)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to the SQLite database (overrides DB_PATH)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newTasksCmd(opts),
		newIdeasCmd(opts),
		newDueCmd(opts),
		newDoneCmd(opts),
		newMCPCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Telegram bot and the optional HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return runServe(config)
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tasks, notes and users tables if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newTasksCmd(opts *rootOptions) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List active tasks of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errInvalidUserID
			}
			store, config, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			tasks, err := store.ActiveTasks(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatTaskList(tasks, config.Location()))
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user id")
	return cmd
}

func newIdeasCmd(opts *rootOptions) *cobra.Command {
	var (
		userID   int64
		noteType string
	)
	cmd := &cobra.Command{
		Use:   "ideas",
		Short: "List notes of a user, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errInvalidUserID
			}
			filter := NoteType(noteType)
			if filter != "" && !filter.Valid() {
				return errInvalidNoteType
			}
			store, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			notes, err := store.Notes(cmd.Context(), userID, filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatIdeas(notes))
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user id")
	cmd.Flags().StringVar(&noteType, "type", string(NoteTypeIdea), "Note type: idea, note, other; empty for all")
	return cmd
}

func newDueCmd(opts *rootOptions) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List active tasks of all users that are due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			moment := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return errInvalidDueAt
				}
				moment = parsed
			}
			store, config, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			tasks, err := store.DueTasks(cmd.Context(), moment)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatDueTasks(tasks, config.Location()))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Moment to check, RFC3339 (default now)")
	return cmd
}

func newDoneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := parseID(args[0])
			if !ok {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			store, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.MarkTaskDone(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "task %d marked done\n", id)
			return nil
		},
	}
}

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve tasks and notes as MCP tools over stdio",
		Long: `Start an MCP (Model Context Protocol) server on stdio.

LLM agents can add and list tasks and ideas through the same store the bot uses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serverErr := make(chan error, 1)
			go func() {
				serverErr <- server.ServeStdio(newMCPServer(store, version))
			}()

			select {
			case <-ctx.Done():
				log.Printf("shutdown requested")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "largo %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
