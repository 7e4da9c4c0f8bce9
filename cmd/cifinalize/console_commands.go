package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cifinalize/internal/logging"
	"cifinalize/internal/platform"
	"cifinalize/internal/platform/consolestore"
)

func newConsoleCommand(ctx *commandContext) *cobra.Command {
	consoleCmd := &cobra.Command{
		Use:   "console",
		Short: "Inspect and seed the host console store",
	}

	consoleCmd.AddCommand(newConsoleTitlesCommand(ctx))
	consoleCmd.AddCommand(newConsoleTicketsCommand(ctx))
	consoleCmd.AddCommand(newConsoleSeedsCommand(ctx))
	consoleCmd.AddCommand(newConsoleRunsCommand(ctx))
	consoleCmd.AddCommand(newConsoleAddTitleCommand(ctx))
	consoleCmd.AddCommand(newConsoleRemoveTitleCommand(ctx))

	return consoleCmd
}

func mediaFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "media", "m", "sd", "Title media: sd, nand or gamecard")
}

func newConsoleTitlesCommand(ctx *commandContext) *cobra.Command {
	var media string
	cmd := &cobra.Command{
		Use:   "titles",
		Short: "List installed titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := platform.ParseMedia(media)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *consolestore.Store) error {
				titles, err := store.Titles(cmd.Context(), m)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(titles) == 0 {
					fmt.Fprintf(out, "No titles installed on %s.\n", m)
					return nil
				}
				rows := make([][]string, 0, len(titles))
				for _, title := range titles {
					rows = append(rows, []string{logging.TitleID(title.TitleID), title.Media.String(), formatTime(title.AddedAt)})
				}
				fmt.Fprintln(out, renderTable("", []string{"Title ID", "Media", "Added"}, rows))
				return nil
			})
		},
	}
	mediaFlag(cmd, &media)
	return cmd
}

func newConsoleTicketsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tickets",
		Short: "List installed tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *consolestore.Store) error {
				tickets, err := store.Tickets(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(tickets) == 0 {
					fmt.Fprintln(out, "No tickets installed.")
					return nil
				}
				rows := make([][]string, 0, len(tickets))
				for _, tik := range tickets {
					rows = append(rows, []string{logging.TitleID(tik.TitleID), fmt.Sprintf("%#x", tik.Size), formatTime(tik.InstalledAt)})
				}
				fmt.Fprintln(out, renderTable("", []string{"Title ID", "Size", "Installed"}, rows, 1))
				return nil
			})
		},
	}
}

func newConsoleSeedsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seeds",
		Short: "List stored seeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *consolestore.Store) error {
				seeds, err := store.Seeds(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(seeds) == 0 {
					fmt.Fprintln(out, "No seeds stored.")
					return nil
				}
				rows := make([][]string, 0, len(seeds))
				for _, seed := range seeds {
					rows = append(rows, []string{logging.TitleID(seed.TitleID), hex.EncodeToString(seed.Seed[:]), formatTime(seed.AddedAt)})
				}
				fmt.Fprintln(out, renderTable("", []string{"Title ID", "Seed", "Added"}, rows))
				return nil
			})
		},
	}
}

type runView struct {
	RunID          string    `json:"run_id"`
	Outcome        string    `json:"outcome"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	PendingPath    string    `json:"pending_path"`
	PendingVersion uint32    `json:"pending_version,omitempty"`
	Digest         string    `json:"digest,omitempty"`
	Total          int       `json:"total"`
	Installed      int       `json:"installed"`
	Skipped        int       `json:"skipped"`
	SeedFailures   int       `json:"seed_failures"`
	PendingRemoved bool      `json:"pending_removed"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

func newConsoleRunsCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show the finalize run journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *consolestore.Store) error {
				runs, err := store.Runs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					views := make([]runView, 0, len(runs))
					for _, run := range runs {
						views = append(views, runView{
							RunID:          run.RunID,
							Outcome:        string(run.Outcome),
							ErrorKind:      run.ErrorKind,
							PendingPath:    run.PendingPath,
							PendingVersion: run.PendingVersion,
							Digest:         run.Digest,
							Total:          run.Total,
							Installed:      run.Installed,
							Skipped:        run.Skipped,
							SeedFailures:   run.SeedFailures,
							PendingRemoved: run.PendingRemoved,
							StartedAt:      run.StartedAt,
							FinishedAt:     run.FinishedAt,
						})
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(views)
				}

				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded.")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					outcome := string(run.Outcome)
					if run.ErrorKind != "" {
						outcome += " (" + run.ErrorKind + ")"
					}
					rows = append(rows, []string{
						shortID(run.RunID),
						formatTime(run.StartedAt),
						outcome,
						strconv.Itoa(run.Total),
						strconv.Itoa(run.Installed),
						strconv.Itoa(run.Skipped),
						strconv.Itoa(run.SeedFailures),
						yesNo(run.PendingRemoved),
					})
				}
				fmt.Fprintln(out, renderTable("Finalize runs",
					[]string{"Run", "Started", "Outcome", "Entries", "Installed", "Skipped", "Seed Failures", "Removed"},
					rows, 3, 4, 5, 6))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newConsoleAddTitleCommand(ctx *commandContext) *cobra.Command {
	var media string
	cmd := &cobra.Command{
		Use:   "add-title <title-id>...",
		Short: "Mark titles as installed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := platform.ParseMedia(media)
			if err != nil {
				return err
			}
			ids, err := parseTitleIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *consolestore.Store) error {
				for _, id := range ids {
					if err := store.AddTitle(cmd.Context(), m, id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s on %s\n", logging.TitleID(id), m)
				}
				return nil
			})
		},
	}
	mediaFlag(cmd, &media)
	return cmd
}

func newConsoleRemoveTitleCommand(ctx *commandContext) *cobra.Command {
	var media string
	cmd := &cobra.Command{
		Use:   "remove-title <title-id>...",
		Short: "Forget installed titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := platform.ParseMedia(media)
			if err != nil {
				return err
			}
			ids, err := parseTitleIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *consolestore.Store) error {
				for _, id := range ids {
					removed, err := store.RemoveTitle(cmd.Context(), m, id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", logging.TitleID(id), m)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s was not installed on %s\n", logging.TitleID(id), m)
					}
				}
				return nil
			})
		},
	}
	mediaFlag(cmd, &media)
	return cmd
}

func parseTitleIDs(args []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(args))
	for _, arg := range args {
		id, err := parseTitleID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
