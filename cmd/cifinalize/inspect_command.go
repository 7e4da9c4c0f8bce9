package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cifinalize/internal/fileutil"
	"cifinalize/internal/pendingdb"
)

type inspectEntry struct {
	TitleID        string `yaml:"title_id"`
	HasSeed        bool   `yaml:"has_seed"`
	Seed           string `yaml:"seed,omitempty"`
	CommonKeyIndex *uint8 `yaml:"common_key_index,omitempty"`
}

type inspectView struct {
	Path    string         `yaml:"path"`
	Version uint32         `yaml:"version"`
	Digest  string         `yaml:"digest"`
	Entries []inspectEntry `yaml:"entries"`
}

func newInspectView(db *pendingdb.Database) inspectView {
	view := inspectView{Path: db.Path, Version: db.Version, Digest: db.Digest, Entries: []inspectEntry{}}
	for _, entry := range db.Entries {
		item := inspectEntry{TitleID: fmt.Sprintf("%016x", entry.TitleID), HasSeed: entry.HasSeed}
		if entry.HasSeed {
			item.Seed = hex.EncodeToString(entry.Seed[:])
		}
		if entry.SourceVersion == pendingdb.VersionLegacy {
			ckey := entry.CommonKeyIndex
			item.CommonKeyIndex = &ckey
		}
		view.Entries = append(view.Entries, item)
	}
	return view
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var (
		format  string
		rewrite uint32
	)

	cmd := &cobra.Command{
		Use:   "inspect [path]",
		Short: "Decode a pending database without installing anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.PendingPath()
			if len(args) == 1 {
				path = args[0]
			}

			policy, err := cfg.VersionPolicy()
			if err != nil {
				return err
			}
			if rewrite != 0 {
				// Conversion reads any supported version regardless of policy.
				policy = pendingdb.TolerantPolicy()
			}
			db, err := pendingdb.Loader{Policy: policy}.Load(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if rewrite != 0 {
				backup := path + ".bak"
				if _, err := fileutil.CopyVerified(path, backup); err != nil {
					return fmt.Errorf("back up %s: %w", path, err)
				}
				if err := pendingdb.WriteFile(path, rewrite, db.Entries); err != nil {
					return fmt.Errorf("rewrite %s: %w", path, err)
				}
				fmt.Fprintf(out, "Rewrote %s from version %d to version %d (%d entries); original saved as %s\n",
					path, db.Version, rewrite, len(db.Entries), backup)
				return nil
			}

			switch strings.ToLower(strings.TrimSpace(format)) {
			case "yaml":
				return writeYAML(out, newInspectView(db))
			case "table", "":
				writeInspectTable(out, newInspectView(db))
				return nil
			default:
				return fmt.Errorf("unsupported format %q (want table or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or yaml")
	cmd.Flags().Uint32Var(&rewrite, "rewrite", 0, "Rewrite the file in place using this schema version")
	return cmd
}

func writeInspectTable(out io.Writer, view inspectView) {
	fmt.Fprintf(out, "Path:    %s\n", view.Path)
	fmt.Fprintf(out, "Version: %d\n", view.Version)
	fmt.Fprintf(out, "Digest:  %s\n", view.Digest)
	if len(view.Entries) == 0 {
		fmt.Fprintln(out, "No pending titles.")
		return
	}
	rows := make([][]string, 0, len(view.Entries))
	for i, entry := range view.Entries {
		ckey := "-"
		if entry.CommonKeyIndex != nil {
			ckey = strconv.Itoa(int(*entry.CommonKeyIndex))
		}
		seed := "-"
		if entry.HasSeed {
			seed = entry.Seed
		}
		rows = append(rows, []string{strconv.Itoa(i), entry.TitleID, yesNo(entry.HasSeed), seed, ckey})
	}
	fmt.Fprintln(out, renderTable("", []string{"#", "Title ID", "Seed", "Seed Value", "Common Key"}, rows, 0, 4))
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
