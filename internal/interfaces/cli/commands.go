package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
	apperrors "github.com/agentops/console/pkg/errors"
)

// AgentService is the agent behavior the commands drive.
type AgentService interface {
	List(ctx context.Context) ([]entity.Agent, error)
	Save(ctx context.Context, id int64, in usecase.AgentInput) (entity.Agent, error)
	Delete(ctx context.Context, id int64, name string) error
}

// WorkflowService is the workflow behavior the commands drive.
type WorkflowService interface {
	List(ctx context.Context) ([]entity.Workflow, error)
	Create(ctx context.Context, in usecase.WorkflowInput) (entity.Workflow, error)
	Delete(ctx context.Context, id int64, name string) error
	Run(ctx context.Context, id int64, name string) (*entity.RunResult, error)
}

// SettingsService loads and saves preferences.
type SettingsService interface {
	Load(ctx context.Context) (entity.Preferences, error)
	Save(ctx context.Context, prefs entity.Preferences) (entity.Preferences, error)
}

// Services is an opened console.
type Services struct {
	Agents    AgentService
	Workflows WorkflowService
	Settings  SettingsService
	Health    func(ctx context.Context) error
	Info      BannerInfo
}

// Opener starts the console services for one command. The returned func
// releases them.
type Opener func(ctx context.Context) (*Services, func(), error)

// reportedError marks an error already shown to the operator.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// IsReported reports whether err was already printed by the command.
func IsReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// Commands returns the agents, workflows, settings and doctor commands.
func Commands(open Opener) []*cobra.Command {
	return []*cobra.Command{
		agentsCommand(open),
		workflowsCommand(open),
		settingsCommand(open),
		doctorCommand(open),
	}
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("output", "o", string(FormatTable), "output format: table, json or yaml")
}

func newRenderer(cmd *cobra.Command) (*Renderer, error) {
	raw, _ := cmd.Flags().GetString("output")
	format, err := ParseFormat(raw)
	if err != nil {
		return nil, err
	}
	return NewRenderer(cmd.OutOrStdout(), format, TermWidth()), nil
}

// withServices opens the console, builds the renderer and runs fn.
func withServices(open Opener, fn func(ctx context.Context, svc *Services, r *Renderer, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		r, err := newRenderer(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		svc, closeFn, err := open(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(ctx, svc, r, args)
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.NewInvalidInputError(fmt.Sprintf("invalid id %q", arg))
	}
	return id, nil
}

// confirmDelete asks before a delete unless --yes was given.
func confirmDelete(cmd *cobra.Command, kind, name string) error {
	if skip, _ := cmd.Flags().GetBool("yes"); skip {
		return nil
	}
	ok, err := Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete %s %q?", kind, name))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConfirmed
	}
	return nil
}

func readSource(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// ─── agents ───

func agentsCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "agents",
		Aliases: []string{"agent"},
		Short:   "Manage agents",
	}
	addOutputFlag(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List agents",
		Args:  cobra.NoArgs,
		RunE: withServices(open, func(ctx context.Context, svc *Services, r *Renderer, _ []string) error {
			agents, err := svc.Agents.List(ctx)
			if err != nil {
				return err
			}
			return r.Agents(agents)
		}),
	})

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an agent",
		Args:  cobra.NoArgs,
	}
	create.Flags().String("name", "", "agent name")
	create.Flags().String("model", "", "model id (gpt-4o, claude-3-5-sonnet, llama-3-local)")
	create.Flags().String("prompt", "", "system prompt")
	create.Flags().String("prompt-file", "", "read the system prompt from a file, - for stdin")
	create.RunE = withServices(open, func(ctx context.Context, svc *Services, r *Renderer, _ []string) error {
		in, err := agentInput(create, usecase.AgentInput{})
		if err != nil {
			return err
		}
		saved, err := svc.Agents.Save(ctx, 0, in)
		if err != nil {
			return err
		}
		if err := r.Success(fmt.Sprintf("Agent %q created", saved.Name)); err != nil {
			return err
		}
		return r.Agent(saved)
	})
	cmd.AddCommand(create)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an agent; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
	}
	update.Flags().String("name", "", "agent name")
	update.Flags().String("model", "", "model id")
	update.Flags().String("prompt", "", "system prompt")
	update.Flags().String("prompt-file", "", "read the system prompt from a file, - for stdin")
	update.RunE = withServices(open, func(ctx context.Context, svc *Services, r *Renderer, args []string) error {
		current, err := findAgent(ctx, svc.Agents, args[0])
		if err != nil {
			return err
		}
		in, err := agentInput(update, usecase.AgentInput{
			Name:         current.Name,
			Model:        string(current.Model),
			SystemPrompt: current.SystemPrompt,
		})
		if err != nil {
			return err
		}
		saved, err := svc.Agents.Save(ctx, current.ID, in)
		if err != nil {
			return err
		}
		if err := r.Success(fmt.Sprintf("Agent %q updated", saved.Name)); err != nil {
			return err
		}
		return r.Agent(saved)
	})
	cmd.AddCommand(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an agent",
		Args:  cobra.ExactArgs(1),
	}
	del.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	del.RunE = withServices(open, func(ctx context.Context, svc *Services, r *Renderer, args []string) error {
		agent, err := findAgent(ctx, svc.Agents, args[0])
		if err != nil {
			return err
		}
		if err := confirmDelete(del, "agent", agent.Name); err != nil {
			return err
		}
		if err := svc.Agents.Delete(ctx, agent.ID, agent.Name); err != nil {
			return err
		}
		return r.Success(fmt.Sprintf("Agent %q deleted", agent.Name))
	})
	cmd.AddCommand(del)

	return cmd
}

// agentInput overlays the flags that were set onto base.
func agentInput(cmd *cobra.Command, base usecase.AgentInput) (usecase.AgentInput, error) {
	in := base
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name, _ = flags.GetString("name")
	}
	if flags.Changed("model") {
		in.Model, _ = flags.GetString("model")
	}
	if flags.Changed("prompt") {
		in.SystemPrompt, _ = flags.GetString("prompt")
	}
	if path, _ := flags.GetString("prompt-file"); path != "" {
		text, err := readSource(cmd, path)
		if err != nil {
			return in, err
		}
		in.SystemPrompt = text
	}
	return in, nil
}

func findAgent(ctx context.Context, agents AgentService, arg string) (entity.Agent, error) {
	id, err := parseID(arg)
	if err != nil {
		return entity.Agent{}, err
	}
	list, err := agents.List(ctx)
	if err != nil {
		return entity.Agent{}, err
	}
	for _, a := range list {
		if a.ID == id {
			return a, nil
		}
	}
	return entity.Agent{}, apperrors.NewNotFoundError(fmt.Sprintf("Agent %d not found", id))
}

// ─── workflows ───

func workflowsCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workflows",
		Aliases: []string{"workflow", "wf"},
		Short:   "Manage and run workflows",
	}
	addOutputFlag(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List workflows",
		Args:  cobra.NoArgs,
		RunE: withServices(open, func(ctx context.Context, svc *Services, r *Renderer, _ []string) error {
			workflows, err := svc.Workflows.List(ctx)
			if err != nil {
				return err
			}
			return r.Workflows(workflows)
		}),
	})

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a workflow",
		Long: `Create a workflow. Tasks are given either as a JSON array with --tasks or
--tasks-file, or one per --task flag as "<agent id>:<instruction>", numbered
in order.`,
		Args: cobra.NoArgs,
	}
	create.Flags().String("name", "", "workflow name")
	create.Flags().String("description", "", "workflow description")
	create.Flags().String("tasks", "", "tasks as a JSON array")
	create.Flags().String("tasks-file", "", "read the tasks JSON from a file, - for stdin")
	create.Flags().StringArray("task", nil, `task as "<agent id>:<instruction>", repeatable`)
	create.RunE = withServices(open, func(ctx context.Context, svc *Services, r *Renderer, _ []string) error {
		in, err := workflowInput(create)
		if err != nil {
			return err
		}
		created, err := svc.Workflows.Create(ctx, in)
		if err != nil {
			return err
		}
		if err := r.Success(fmt.Sprintf("Workflow %q created", created.Name)); err != nil {
			return err
		}
		return r.Workflow(created)
	})
	cmd.AddCommand(create)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a workflow",
		Args:  cobra.ExactArgs(1),
	}
	del.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	del.RunE = withServices(open, func(ctx context.Context, svc *Services, r *Renderer, args []string) error {
		w, err := findWorkflow(ctx, svc.Workflows, args[0])
		if err != nil {
			return err
		}
		if err := confirmDelete(del, "workflow", w.Name); err != nil {
			return err
		}
		if err := svc.Workflows.Delete(ctx, w.ID, w.Name); err != nil {
			return err
		}
		return r.Success(fmt.Sprintf("Workflow %q deleted", w.Name))
	})
	cmd.AddCommand(del)

	run := &cobra.Command{
		Use:   "run <id>",
		Short: "Run a workflow and print its results",
		Args:  cobra.ExactArgs(1),
	}
	run.RunE = withServices(open, func(ctx context.Context, svc *Services, r *Renderer, args []string) error {
		w, err := findWorkflow(ctx, svc.Workflows, args[0])
		if err != nil {
			return err
		}
		start := time.Now()
		result, err := svc.Workflows.Run(ctx, w.ID, w.Name)
		if err != nil {
			alert := NewRenderer(run.ErrOrStderr(), FormatTable, TermWidth())
			alert.Alert("Workflow run failed", apperrors.Detail(err, usecase.MsgRunWorkflowFailed))
			return reportedError{err}
		}
		return r.Run(w.Name, result, time.Since(start))
	})
	cmd.AddCommand(run)

	return cmd
}

func workflowInput(cmd *cobra.Command) (usecase.WorkflowInput, error) {
	flags := cmd.Flags()
	in := usecase.WorkflowInput{}
	in.Name, _ = flags.GetString("name")
	in.Description, _ = flags.GetString("description")
	in.TasksText, _ = flags.GetString("tasks")

	if path, _ := flags.GetString("tasks-file"); path != "" {
		if in.TasksText != "" {
			return in, apperrors.NewInvalidInputError("use either --tasks or --tasks-file")
		}
		text, err := readSource(cmd, path)
		if err != nil {
			return in, err
		}
		in.TasksText = text
	}

	specs, _ := flags.GetStringArray("task")
	if len(specs) > 0 && in.TasksText != "" {
		return in, apperrors.NewInvalidInputError("use either --task or a JSON task list")
	}
	for _, raw := range specs {
		agent, instruction, ok := strings.Cut(raw, ":")
		agentID, err := strconv.ParseInt(strings.TrimSpace(agent), 10, 64)
		if !ok || err != nil {
			return in, apperrors.NewInvalidInputError(fmt.Sprintf("invalid --task %q, want <agent id>:<instruction>", raw))
		}
		in.Tasks = in.Tasks.Append(agentID, strings.TrimSpace(instruction))
	}
	if in.Tasks == nil {
		in.Tasks = entity.TaskList{}
	}
	return in, nil
}

func findWorkflow(ctx context.Context, workflows WorkflowService, arg string) (entity.Workflow, error) {
	id, err := parseID(arg)
	if err != nil {
		return entity.Workflow{}, err
	}
	list, err := workflows.List(ctx)
	if err != nil {
		return entity.Workflow{}, err
	}
	for _, w := range list {
		if w.ID == id {
			return w, nil
		}
	}
	return entity.Workflow{}, apperrors.NewNotFoundError(fmt.Sprintf("Workflow %d not found", id))
}

// ─── settings ───

func settingsCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change console settings",
	}
	addOutputFlag(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show settings",
		Args:  cobra.NoArgs,
		RunE: withServices(open, func(ctx context.Context, svc *Services, r *Renderer, _ []string) error {
			prefs, err := svc.Settings.Load(ctx)
			if err != nil {
				return err
			}
			return r.Preferences(prefs)
		}),
	})

	set := &cobra.Command{
		Use:   "set",
		Short: "Change settings; unset flags keep their current value",
		Args:  cobra.NoArgs,
	}
	set.Flags().String("theme", "", "dark or light")
	set.Flags().Bool("notifications", true, "enable notifications")
	set.Flags().String("api-key", "", "backend API key")
	set.Flags().Bool("clear-api-key", false, "remove the stored API key")
	set.RunE = withServices(open, func(ctx context.Context, svc *Services, r *Renderer, _ []string) error {
		prefs, err := svc.Settings.Load(ctx)
		if err != nil {
			return err
		}
		flags := set.Flags()
		if flags.Changed("theme") {
			prefs.Theme, _ = flags.GetString("theme")
		}
		if flags.Changed("notifications") {
			prefs.Notifications, _ = flags.GetBool("notifications")
		}
		if flags.Changed("api-key") {
			prefs.APIKey, _ = flags.GetString("api-key")
		}
		if wipe, _ := flags.GetBool("clear-api-key"); wipe {
			prefs.APIKey = ""
		}
		saved, err := svc.Settings.Save(ctx, prefs)
		if err != nil {
			return err
		}
		if err := r.Success(usecase.MsgSettingsSaved); err != nil {
			return err
		}
		return r.Preferences(saved)
	})
	cmd.AddCommand(set)

	return cmd
}

// ─── doctor ───

func doctorCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, local store and backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewRenderer(cmd.OutOrStdout(), FormatTable, TermWidth())
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			svc, closeFn, err := open(ctx)
			if err != nil {
				r.Check("Console", err.Error(), false)
				return reportedError{err}
			}
			defer closeFn()

			fmt.Fprint(cmd.OutOrStdout(), RenderBanner(svc.Info, TermWidth()))
			fmt.Fprintln(cmd.OutOrStdout())

			allOK := true
			check := func(name, detail string, ok bool) {
				allOK = allOK && ok
				r.Check(name, detail, ok)
			}

			if svc.Info.ConfigFile != "" {
				check("Config", svc.Info.ConfigFile, true)
			} else {
				check("Config", "none found, using defaults", true)
			}

			if _, err := svc.Settings.Load(ctx); err != nil {
				check("Store", err.Error(), false)
			} else {
				check("Store", svc.Info.Database, true)
			}

			if svc.Health != nil {
				hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
				err := svc.Health(hctx)
				cancel()
				if err != nil {
					check("Backend", apperrors.Detail(err, err.Error()), false)
				} else {
					check("Backend", svc.Info.Backend, true)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout())
			if !allOK {
				fmt.Fprintln(cmd.OutOrStdout(), "Some checks failed, see the marks above")
				return reportedError{errors.New("doctor: checks failed")}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All checks passed ✓")
			return nil
		},
	}
}
