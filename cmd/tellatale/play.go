package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tellatale/internal/presentation/tui"
	"github.com/aretw0/tellatale/internal/runtime"
	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/runner"
	"github.com/aretw0/tellatale/pkg/session"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play an interactive story in the terminal",
	Long: `Starts a new story and plays it interactively. Sign in with --as to
autosave progress; resume a saved story with --resume.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		logger := buildLogger(cmd)

		gen, err := buildGenerator(ctx)
		if err != nil {
			return err
		}
		defer gen.Close()

		store, err := buildStore(cmd)
		if err != nil {
			return err
		}
		rec := session.NewRecorder(store, session.WithLogger(logger))
		if err := signIn(cmd, rec); err != nil {
			return err
		}

		eng := runtime.NewEngine(gen, runtime.WithLogger(logger))
		run := runner.New(eng,
			runner.WithRenderer(tui.NewRenderer()),
			runner.WithRecorder(rec),
			runner.WithLogger(logger),
		)

		tui.PrintBanner()

		if storyID, _ := cmd.Flags().GetString("resume"); storyID != "" {
			saved, err := rec.Recall(ctx, storyID)
			if err != nil {
				return fmt.Errorf("cannot resume %q: %w", storyID, err)
			}
			return run.Resume(ctx, *saved)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return run.Run(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("config", "c", "", "YAML file with the story configuration")
	playCmd.Flags().String("genre", domain.GenreFantasy, "Story genre")
	playCmd.Flags().String("archetype", domain.ArchetypeHero, "Protagonist archetype")
	playCmd.Flags().String("name", "", "Protagonist name")
	playCmd.Flags().String("setting", "", "Where the story takes place")
	playCmd.Flags().String("tone", "Epic", "Narrative tone")
	playCmd.Flags().String("as", "", "Username to sign in as (prompts for the password)")
	playCmd.Flags().Bool("register", false, "Register the --as username instead of signing in")
	playCmd.Flags().String("resume", "", "Saved story ID to resume")
}

// loadConfig builds the story config from a YAML file, flags, and finally
// interactive prompts for whatever is still missing.
func loadConfig(cmd *cobra.Command) (domain.Config, error) {
	var cfg domain.Config

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("cannot read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("cannot parse config: %w", err)
		}
	}

	if v, _ := cmd.Flags().GetString("genre"); cfg.Genre == "" || cmd.Flags().Changed("genre") {
		cfg.Genre = v
	}
	if v, _ := cmd.Flags().GetString("archetype"); cfg.Archetype == "" || cmd.Flags().Changed("archetype") {
		cfg.Archetype = v
	}
	if v, _ := cmd.Flags().GetString("name"); v != "" {
		cfg.ProtagonistName = v
	}
	if v, _ := cmd.Flags().GetString("setting"); v != "" {
		cfg.Setting = v
	}
	if v, _ := cmd.Flags().GetString("tone"); cfg.Tone == "" || cmd.Flags().Changed("tone") {
		cfg.Tone = v
	}

	reader := bufio.NewReader(os.Stdin)
	if cfg.ProtagonistName == "" {
		cfg.ProtagonistName = prompt(reader, "Name your protagonist: ")
	}
	if cfg.Setting == "" {
		fmt.Printf("Genres: %s\n", strings.Join(domain.Genres(), ", "))
		cfg.Setting = prompt(reader, "Where does the story take place? ")
	}
	return cfg, cfg.Validate()
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	text, _ := reader.ReadString('\n')
	return strings.TrimSpace(text)
}

// signIn handles the --as flag: password prompt, then login or registration.
func signIn(cmd *cobra.Command, rec *session.Recorder) error {
	username, _ := cmd.Flags().GetString("as")
	if username == "" {
		return nil
	}

	fmt.Printf("Password for %s: ", username)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("cannot read password: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if register, _ := cmd.Flags().GetBool("register"); register {
		if _, err := rec.SignUp(ctx, username, string(secret)); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		fmt.Printf("Welcome, %s. Your chronicles will be kept.\n", username)
		return nil
	}

	if _, err := rec.SignIn(ctx, username, string(secret)); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return fmt.Errorf("invalid credentials for %q (use --register for a new account)", username)
		}
		return err
	}
	fmt.Printf("Welcome back, %s.\n", username)
	return nil
}
