package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tellatale/pkg/session"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and manage saved stories",
}

var historyLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the signed-in user's saved stories",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := historyRecorder(cmd)
		if err != nil {
			return err
		}
		history, err := rec.History(cmdContext(cmd))
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Println("No saved stories yet.")
			return nil
		}
		for _, saved := range history {
			fmt.Printf("%s  %-30s  %s  (%d segments)\n",
				saved.Timestamp.Format("2006-01-02 15:04"),
				saved.Title,
				saved.ID,
				len(saved.Segments),
			)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <story-id>",
	Short: "Print a saved story's narrative so far",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := historyRecorder(cmd)
		if err != nil {
			return err
		}
		saved, err := rec.Recall(cmdContext(cmd), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n\n", saved.Title, saved.Genre)
		for _, segment := range saved.Segments {
			fmt.Println(segment.Text)
			fmt.Println()
		}
		fmt.Printf("Soul: %s\n", saved.Personality.Summary)
		return nil
	},
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <story-id>",
	Short: "Delete a saved story",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := historyRecorder(cmd)
		if err != nil {
			return err
		}
		if err := rec.Forget(cmdContext(cmd), args[0]); err != nil {
			return err
		}
		fmt.Printf("Story %s forgotten.\n", args[0])
		return nil
	},
}

// historyRecorder builds a signed-in recorder for the history commands.
func historyRecorder(cmd *cobra.Command) (*session.Recorder, error) {
	store, err := buildStore(cmd)
	if err != nil {
		return nil, err
	}
	rec := session.NewRecorder(store, session.WithLogger(buildLogger(cmd)))
	if username, _ := cmd.Flags().GetString("as"); username == "" {
		return nil, fmt.Errorf("history commands need --as <username>")
	}
	if err := signIn(cmd, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyLsCmd, historyShowCmd, historyRmCmd)

	historyCmd.PersistentFlags().String("as", "", "Username to sign in as (prompts for the password)")
	historyCmd.PersistentFlags().Bool("register", false, "Register the --as username instead of signing in")
}
