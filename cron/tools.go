package cron

import (
	"context"
	"fmt"

	"github.com/9v2/pyclaw/tool"
)

type addJobArgs struct {
	Name     string `json:"name" desc:"Unique name for the job" required:"true"`
	Schedule string `json:"schedule" desc:"Cron schedule expression" required:"true"`
	Action   string `json:"action" desc:"What the AI should do when the job fires (a prompt)" required:"true"`
}

type removeJobArgs struct {
	Name string `json:"name" desc:"Name of the job to remove" required:"true"`
}

// Tools returns the job management tools bound to m.
func Tools(m *Manager) []*tool.Tool {
	return []*tool.Tool{
		tool.Func("list_cron_jobs", "List all scheduled cron jobs with their status.",
			func(ctx context.Context, _ struct{}) (any, error) {
				return m.Format(), nil
			}),

		tool.Func("add_cron_job",
			"Add a new scheduled cron job. Schedule uses standard cron syntax (minute hour day-of-month month day-of-week). Example: '0 9 * * 1-5' runs at 9 AM on weekdays.",
			func(ctx context.Context, args addJobArgs) (any, error) {
				job, err := m.Add(args.Name, args.Schedule, args.Action)
				if err != nil {
					return nil, err
				}
				return fmt.Sprintf("Added cron job '%s': %s → %s", job.Name, job.Schedule, job.Action), nil
			}, tool.RequiresConfirmation()),

		tool.Func("remove_cron_job", "Remove a scheduled cron job by name.",
			func(ctx context.Context, args removeJobArgs) (any, error) {
				ok, err := m.Remove(args.Name)
				if err != nil {
					return nil, err
				}
				if !ok {
					return fmt.Sprintf("Job '%s' not found", args.Name), nil
				}
				return fmt.Sprintf("Removed cron job '%s'", args.Name), nil
			}),
	}
}
