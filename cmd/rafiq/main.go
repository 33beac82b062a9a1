package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"rafiq/internal/almanac"
	"rafiq/internal/articulation"
	"rafiq/internal/config"
	"rafiq/internal/dialogue"
	"rafiq/internal/logging"
	"rafiq/internal/perception"
	"rafiq/internal/session"
	"rafiq/internal/store"
	"rafiq/internal/suggestion"
	"rafiq/internal/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	userName   string
	noStore    bool

	// Logger
	logger *zap.Logger

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "rafiq",
	Short: "Rafiq - rule-driven spiritual companion",
	Long: `Rafiq is a deterministic conversational companion for Shia Muslim users.

Every reply comes from an auditable rule bank and template bank; there is no
model in the loop, so identical input always produces identical output.

Run without arguments to start the interactive conversation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := logging.Initialize("."); err != nil {
			logger.Warn("File logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the interactive conversation
		return runInteractive(cmd.Context())
	},
}

// detectCmd classifies a single utterance and prints the intent as JSON
var detectCmd = &cobra.Command{
	Use:   "detect [text]",
	Short: "Classify one utterance and print the structured intent",
	Long: `Runs the perception pass alone: category, confidence, emotion and
extracted entities for the given text. Useful for tuning the rule bank.

Example:
  rafiq detect "what time is maghrib today"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classifier, err := buildClassifier()
		if err != nil {
			return err
		}
		intent := classifier.Detect(strings.Join(args, " "))
		out, err := json.MarshalIndent(intent, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding intent: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

// suggestCmd prints today's proactive suggestion strip
var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Print today's proactive suggestions",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := buildEngine()
		if err != nil {
			return err
		}
		defer eng.Close()
		eng.Bootstrap(cmd.Context(), userName)

		suggestions := eng.Suggestions()
		if len(suggestions) == 0 {
			fmt.Println("No suggestions right now.")
			return nil
		}
		for _, s := range suggestions {
			fmt.Printf("[%s] %s: %s\n", s.Priority, s.Title, s.Message)
		}
		return nil
	},
}

// answersCmd lists saved answers
var answersCmd = &cobra.Command{
	Use:   "answers",
	Short: "List answers you have saved",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()

		saved, err := st.List(cmd.Context(), 50)
		if err != nil {
			return err
		}
		if len(saved) == 0 {
			fmt.Println("Nothing saved yet.")
			return nil
		}
		for _, a := range saved {
			fmt.Printf("%s  %s\n  Q: %s\n  A: %s\n\n",
				a.SavedAt.Local().Format("2006-01-02 15:04"), a.Category, a.Question, a.Answer)
		}
		return nil
	},
}

func buildClassifier() (*perception.Classifier, error) {
	classifier := perception.NewClassifier(perception.Config{
		MinConfidence: cfg.Perception.MinConfidence,
		Parallel:      cfg.Perception.Parallel,
	})
	if cfg.Perception.RuleBankPath != "" {
		if err := classifier.LoadOverlayFile(cfg.Perception.RuleBankPath); err != nil {
			logger.Warn("Rule bank overlay not applied", zap.Error(err))
		}
	}
	return classifier, nil
}

func buildEngine() (*dialogue.Engine, *perception.Classifier, error) {
	classifier, err := buildClassifier()
	if err != nil {
		return nil, nil, err
	}

	revealInterval, err := cfg.RevealInterval()
	if err != nil {
		return nil, nil, err
	}
	almanacTimeout, err := cfg.AlmanacTimeout()
	if err != nil {
		return nil, nil, err
	}
	prayerWindow, err := cfg.PrayerWindow()
	if err != nil {
		return nil, nil, err
	}

	var answers store.AnswerStore
	if !noStore {
		st, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
		if err != nil {
			logger.Warn("Answer store unavailable, saving disabled", zap.Error(err))
		} else {
			answers = st
		}
	}

	eng := dialogue.New(dialogue.Options{
		Config: dialogue.Config{
			RevealInterval: revealInterval,
			AlmanacTimeout: almanacTimeout,
			Location:       cfg.Engine.Location,
		},
		Classifier: classifier,
		Selector:   articulation.NewSelector(),
		Ranker: suggestion.NewRanker(suggestion.Config{
			MaxSuggestions: cfg.Suggestion.MaxSuggestions,
			PrayerWindow:   prayerWindow,
			NudgeBelow:     cfg.Suggestion.NudgeBelow,
		}),
		Session:  session.NewStore(cfg.Engine.HistoryLimit),
		Answers:  answers,
		Provider: almanac.NewStaticProvider(),
	})
	return eng, classifier, nil
}

// runInteractive is the default REPL loop.
func runInteractive(ctx context.Context) error {
	eng, classifier, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	eng.Bootstrap(ctx, userName)

	// Optional rule bank hot reload while the REPL is running.
	if cfg.Perception.WatchRuleBank && cfg.Perception.RuleBankPath != "" {
		watcher, werr := perception.NewBankWatcher(cfg.Perception.RuleBankPath, classifier)
		if werr != nil {
			logger.Warn("Rule bank watching unavailable", zap.Error(werr))
		} else if werr := watcher.Start(ctx); werr != nil {
			logger.Warn("Rule bank watcher failed to start", zap.Error(werr))
		} else {
			defer watcher.Stop()
		}
	}

	fmt.Println("Salam! I'm Rafiq. Type a message, or /help for commands.")
	printSuggestions(eng.Suggestions())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nyou> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if done := handleCommand(eng, line); done {
				break
			}
			continue
		}

		fmt.Print("rafiq> ")
		resp, err := eng.Send(ctx, line, func(chunk string) {
			fmt.Print(chunk)
		})
		fmt.Println()
		if err != nil {
			if err == dialogue.ErrBusy {
				fmt.Println("(one moment, still finishing the last reply)")
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for _, a := range resp.Actions {
			fmt.Printf("  -> %s (%s)\n", a.Label, a.Target)
		}
		if len(resp.QuickReplies) > 0 {
			fmt.Printf("  [%s]\n", strings.Join(resp.QuickReplies, " | "))
		}
		// The suggestion strip depends on interaction count and the clock,
		// so recompute it after every turn.
		printSuggestions(eng.Suggestions())
	}
	return scanner.Err()
}

// handleCommand processes REPL slash commands. Returns true to exit.
func handleCommand(eng *dialogue.Engine, line string) bool {
	switch strings.ToLower(line) {
	case "/quit", "/exit":
		fmt.Println("Khuda hafiz.")
		return true
	case "/clear":
		eng.Clear()
		fmt.Println("Conversation cleared.")
	case "/suggest":
		printSuggestions(eng.Suggestions())
	case "/help":
		fmt.Println("Commands: /suggest  /clear  /quit")
	default:
		fmt.Printf("Unknown command %q. Try /help.\n", line)
	}
	return false
}

func printSuggestions(suggestions []types.ProactiveSuggestion) {
	if len(suggestions) == 0 {
		return
	}
	fmt.Println()
	for _, s := range suggestions {
		fmt.Printf("  * %s: %s\n", s.Title, s.Message)
	}
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "rafiq.json", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&userName, "name", "", "Your name, used in greetings")
	rootCmd.PersistentFlags().BoolVar(&noStore, "no-store", false, "Disable saved-answer persistence")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(answersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
