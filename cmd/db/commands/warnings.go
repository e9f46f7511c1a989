package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/sweeper/internal/database/service"
	"github.com/urfave/cli/v3"
)

// defaultHistoryLimit is the number of entries listed when --limit is not given.
const defaultHistoryLimit = 25

// WarningCommands returns the commands for inspecting a member's moderation record.
func WarningCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:      "warnings",
			Usage:     "List the warnings and automatic actions of a member",
			ArgsUsage: "GUILD_ID USER_ID",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   defaultHistoryLimit,
					Usage:   "Maximum number of entries to list",
				},
			},
			Action: handleWarnings(deps),
		},
	}
}

// handleWarnings handles the 'warnings' command.
func handleWarnings(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 2 {
			return ErrMemberRequired
		}

		guildID, err := snowflake.Parse(c.Args().Get(0))
		if err != nil {
			return fmt.Errorf("invalid guild ID: %w", err)
		}

		userID, err := snowflake.Parse(c.Args().Get(1))
		if err != nil {
			return fmt.Errorf("invalid user ID: %w", err)
		}

		history, err := deps.DB.Service().Moderation().GetHistory(ctx, guildID, userID, int(c.Int("limit")))
		if err != nil {
			return err
		}

		return writeHistory(deps.Out, history)
	}
}

// writeHistory prints the warnings and actions as aligned tables.
func writeHistory(out io.Writer, history *service.History) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Warnings (%d total)\n", history.WarningCount)
	fmt.Fprintln(w, "TIME\tMODERATOR\tREASON")

	for _, warning := range history.Warnings {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			warning.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatUint(warning.ModeratorID, 10),
			warning.Reason)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Actions")
	fmt.Fprintln(w, "TIME\tKIND\tRULE\tEVIDENCE\tMUTE\tNOTIFIED")

	for _, action := range history.Actions {
		mute := "-"
		if action.MuteSeconds > 0 {
			mute = action.MuteDuration().String()
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
			action.CreatedAt.UTC().Format(time.RFC3339),
			action.Kind,
			action.Rule,
			action.Evidence,
			mute,
			action.Notified)
	}

	return w.Flush()
}
