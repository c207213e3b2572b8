package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/config"
	"github.com/dimitrije/flowaborate-api/internal/database"
	"github.com/dimitrije/flowaborate-api/internal/services"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flowctl",
		Short: "Flowaborate operator CLI",
		Long: `flowctl inspects the collaboration state machine and runs maintenance jobs.
- statuses: the status registry with who is responsible at each step.
- check-transition: whether a status change is allowed.
- sweep: one pass of reminders and exception alerts, for cron.
- exceptions: collaborations that currently need the host's attention.
- token: mint an access token for a user (development only).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("output", "o", "table", "output format (table, json, yaml)")
	_ = viper.BindPFlag("output", root.PersistentFlags().Lookup("output"))

	root.AddCommand(statusesCmd())
	root.AddCommand(checkTransitionCmd())
	root.AddCommand(sweepCmd())
	root.AddCommand(exceptionsCmd())
	root.AddCommand(tokenCmd())
	return root
}

func main() {
	cobra.OnInitialize(initConfig)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("FLOWCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// connect loads the server configuration and opens the database.
func connect(ctx context.Context) (*config.Config, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

type statusRow struct {
	Value       string   `json:"value" yaml:"value"`
	Label       string   `json:"label" yaml:"label"`
	Party       string   `json:"party" yaml:"party"`
	Action      string   `json:"action" yaml:"action"`
	Terminal    bool     `json:"terminal" yaml:"terminal"`
	Transitions []string `json:"transitions" yaml:"transitions"`
}

func statusesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "Show the status registry and transition table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []statusRow
			for _, s := range workflow.AllStatuses() {
				r := workflow.ResolveResponsibility(s)
				next := make([]string, 0)
				for _, n := range workflow.AllowedTransitions(s) {
					next = append(next, string(n))
				}
				rows = append(rows, statusRow{
					Value:       string(s),
					Label:       s.Label(),
					Party:       string(r.Party),
					Action:      r.Action,
					Terminal:    workflow.IsTerminal(s),
					Transitions: next,
				})
			}

			return render(cmd, rows, func(tw table.Writer) {
				tw.AppendHeader(table.Row{"Status", "Label", "Waiting On", "Action", "Next"})
				for _, r := range rows {
					next := strings.Join(r.Transitions, ", ")
					if r.Terminal {
						next = "(terminal)"
					}
					tw.AppendRow(table.Row{r.Value, r.Label, r.Party, r.Action, next})
				}
			})
		},
	}
}

func checkTransitionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-transition <from> <to>",
		Short: "Check whether a status change is allowed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := workflow.ParseStatus(args[0])
			if err != nil {
				return err
			}
			to, err := workflow.ParseStatus(args[1])
			if err != nil {
				return err
			}
			if err := workflow.CheckTransition(from, to); err != nil {
				return err
			}

			triggers := workflow.DecideNotifications(from, to)
			var notify []string
			for _, role := range triggers.Roles() {
				notify = append(notify, string(role))
			}
			if len(notify) == 0 {
				notify = []string{"nobody"}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s -> %s (notifies %s)\n", from, to, strings.Join(notify, ", "))
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one reminder and exception sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				now = parsed
			}

			ctx := cmd.Context()
			cfg, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			sent := services.NewNotificationLogService(db)
			notifier := services.NewNotificationService(
				services.NewEmailService(cfg.SMTP),
				services.NewTemplateService(cfg.AppURL),
				sent,
			)
			sweep := services.NewSweepService(services.NewCollaborationService(db), notifier, sent, cfg.Sweep.Thresholds(), cfg.Sweep.Dedup())

			summary, err := sweep.Run(ctx, now)
			if err != nil {
				return err
			}
			if err := renderSweep(cmd, summary); err != nil {
				return err
			}
			if len(summary.Errors) > 0 {
				return fmt.Errorf("sweep finished with %d step errors", len(summary.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluate as of this RFC3339 time instead of now")
	return cmd
}

func renderSweep(cmd *cobra.Command, summary *services.SweepSummary) error {
	return render(cmd, summary, func(tw table.Writer) {
		tw.AppendHeader(table.Row{"Step", "Sent", "Skipped", "Failed"})
		for _, step := range summary.Steps {
			tw.AppendRow(table.Row{step.Name, step.Sent, step.Skipped, step.Failed})
		}
		total := summary.Totals()
		tw.AppendFooter(table.Row{"Total", total.Sent, total.Skipped, total.Failed})
		for _, e := range summary.Errors {
			tw.AppendFooter(table.Row{"error", e, "", ""})
		}
	})
}

type exceptionRow struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Workspace string `json:"workspace" yaml:"workspace"`
	Status    string `json:"status" yaml:"status"`
	Type      string `json:"type" yaml:"type"`
	Severity  string `json:"severity" yaml:"severity"`
	Message   string `json:"message" yaml:"message"`
}

func exceptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exceptions",
		Short: "List collaborations with a stalled, no-show or missed-deadline condition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			candidates, err := services.NewCollaborationService(db).Find(ctx, services.CollaborationFilter{
				Statuses: []workflow.Status{
					workflow.StatusInvited, workflow.StatusIntakeCompleted,
					workflow.StatusScheduled, workflow.StatusEditing,
				},
			})
			if err != nil {
				return err
			}

			now := time.Now()
			th := cfg.Sweep.Thresholds()
			rows := make([]exceptionRow, 0)
			for i := range candidates {
				d := &candidates[i]
				exc := workflow.DetectException(d.Timeline(), now, th)
				if exc == nil {
					continue
				}
				rows = append(rows, exceptionRow{
					ID:        d.ID.String(),
					Title:     d.Title,
					Workspace: d.WorkspaceName,
					Status:    string(d.Status),
					Type:      string(exc.Type),
					Severity:  string(exc.Severity),
					Message:   exc.Message,
				})
			}

			return render(cmd, rows, func(tw table.Writer) {
				tw.AppendHeader(table.Row{"ID", "Title", "Workspace", "Status", "Exception", "Severity", "Message"})
				for _, r := range rows {
					tw.AppendRow(table.Row{r.ID, r.Title, r.Workspace, r.Status, r.Type, r.Severity, r.Message})
				}
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	var email, name string
	var expiry time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Create or update a user and print an access token for them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if name == "" {
				name = strings.SplitN(email, "@", 2)[0]
			}

			ctx := cmd.Context()
			cfg, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			user, err := services.NewUserService(db).Upsert(ctx, email, name)
			if err != nil {
				return err
			}

			if expiry == 0 {
				expiry = cfg.JWTAccessExpiry
			}
			token, err := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry).GenerateAccessTokenWithExpiry(user.ID, user.Email, expiry)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user:  %s <%s>\ntoken: %s\n", user.ID, user.Email, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the email's local part)")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime (defaults to JWT_ACCESS_EXPIRY)")
	return cmd
}
