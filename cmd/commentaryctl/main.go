// Command commentaryctl runs the commentary pipeline's pure stages offline:
// diff two snapshots, print the prompt a snapshot would produce, check
// commentary against a roster, and verify stored audit bundles.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/match-commentary/internal/audit"
	"github.com/DoyleJ11/match-commentary/internal/engine"
	"github.com/DoyleJ11/match-commentary/internal/match"
	"github.com/DoyleJ11/match-commentary/internal/prompt"
	"github.com/DoyleJ11/match-commentary/internal/validate"
)

var errFailed = errors.New("check failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var profilePath string

	root := &cobra.Command{
		Use:          "commentaryctl",
		Short:        "Offline tools for the match commentary pipeline",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&profilePath, "profile", "", "commentary profile YAML (default: built-in)")

	loadProfile := func() (prompt.Profile, error) { return prompt.LoadProfile(profilePath) }

	root.AddCommand(
		newDiffCmd(),
		newPromptCmd(loadProfile),
		newValidateCmd(loadProfile),
		newVerifyCmd(),
	)
	return root
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff PREVIOUS CURRENT",
		Short: "Print the prioritized tactical events between two snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, err := readSnapshot(args[0])
			if err != nil {
				return err
			}
			cur, err := readSnapshot(args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range engine.PrioritizeAll(engine.Diff(prev, cur)) {
				fmt.Fprintf(out, "[%s] %s\n", e.Priority, e)
			}
			return nil
		},
	}
}

func newPromptCmd(loadProfile func() (prompt.Profile, error)) *cobra.Command {
	var prevPath string
	var first bool

	cmd := &cobra.Command{
		Use:   "prompt CURRENT",
		Short: "Print the instruction and whitelist sidecar for a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := loadProfile()
			if err != nil {
				return err
			}
			cur, err := readSnapshot(args[0])
			if err != nil {
				return err
			}
			var prev *match.Snapshot
			if prevPath != "" {
				if prev, err = readSnapshot(prevPath); err != nil {
					return err
				}
			}

			msg := prompt.NewComposer(profile).Compose(prompt.Input{
				Previous: prev,
				Current:  cur,
				Events:   engine.PrioritizeAll(engine.Diff(prev, cur)),
				First:    first,
			})
			wl := prompt.BuildWhitelist(cur, profile.BannedPhrases)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, msg)
			fmt.Fprintln(out)
			fmt.Fprint(out, wl.Render())
			return nil
		},
	}
	cmd.Flags().StringVar(&prevPath, "prev", "", "previous snapshot")
	cmd.Flags().BoolVar(&first, "first", false, "treat as the first update of the match")
	return cmd
}

func newValidateCmd(loadProfile func() (prompt.Profile, error)) *cobra.Command {
	var snapPath string

	cmd := &cobra.Command{
		Use:   "validate [TEXT]",
		Short: "Check commentary against a snapshot's roster; reads stdin without TEXT",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := loadProfile()
			if err != nil {
				return err
			}
			snap, err := readSnapshot(snapPath)
			if err != nil {
				return err
			}

			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(data)
			}

			wl := prompt.BuildWhitelist(snap, profile.BannedPhrases)
			res := validate.Validate(text, wl.Teams, wl.Players, wl.Roles, wl.Banned)
			fmt.Fprintln(cmd.OutOrStdout(), res.Reason)
			if !res.OK {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&snapPath, "snapshot", "", "snapshot providing the roster (required)")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify BUNDLE...",
		Short: "Re-hash stored audit bundles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				b, err := audit.ReadFile(path)
				if err == nil {
					err = audit.Verify(b)
				}
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s %s\n", path, b.Hash)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d bundles", errFailed, failed, len(args))
			}
			return nil
		},
	}
}

func readSnapshot(path string) (*match.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := match.ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", strings.TrimSpace(path), err)
	}
	return s, nil
}
