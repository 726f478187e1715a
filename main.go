package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
)

type cliOptions struct {
	configPath string
	verbose    bool
	config     Config
}

func main() {
	os.Exit(HandleExitError(os.Stderr, NewRootCommand(os.Stdout, os.Stderr).Execute()))
}

func NewRootCommand(stdout io.Writer, stderr io.Writer) *cobra.Command {
	options := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "spreadsheet",
		Short:         "Spreadsheet engine with formula cells, persistence and webhooks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			options.config, err = LoadConfig(options.configPath)
			if err != nil {
				return err
			}

			level, err := options.config.SlogLevel()
			if err != nil {
				return err
			}
			if options.verbose {
				level = slog.LevelDebug
			}

			slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().StringVarP(&options.configPath, "config", "c", "", "Path to yaml config file")
	rootCmd.PersistentFlags().BoolVarP(&options.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newServeCommand(options),
		newImportCommand(options),
		newExportCommand(options),
		newEvalCommand(options),
	)

	return rootCmd
}

func newServeCommand(options *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return RunApp(ctx, options.config)
		},
	}
}

func newImportCommand(options *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <sheet_id> <file.xml>",
		Short: "Replace a sheet with the contents of an xml document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSheetRepository(options.config, func(repository *SheetRepository) error {
				cells, err := repository.LoadSheet(args[0], args[1])
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d cells into %s\n", len(cells), strings.ToLower(args[0]))
				return err
			})
		},
	}
}

func newExportCommand(options *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <sheet_id> <file.xml>",
		Short: "Write a sheet to an xml document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSheetRepository(options.config, func(repository *SheetRepository) error {
				if err := repository.SaveSheet(args[0], args[1]); err != nil {
					return err
				}

				_, err := fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", strings.ToLower(args[0]), args[1])
				return err
			})
		},
	}
}

func newEvalCommand(options *cliOptions) *cobra.Command {
	var sheetId string
	var rawVariables []string

	evalCmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression, optionally against a stored sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variables, err := parseVariables(rawVariables)
			if err != nil {
				return err
			}

			var result string
			if sheetId == "" {
				result, err = evaluateExpression(args[0], variables)
			} else {
				err = withSheetRepository(options.config, func(repository *SheetRepository) (err error) {
					result, err = repository.Evaluate(sheetId, args[0], variables)
					return
				})
			}
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), result)
			return err
		},
	}
	evalCmd.Flags().StringVarP(&sheetId, "sheet", "s", "", "Resolve variables against cells of this sheet")
	evalCmd.Flags().StringArrayVar(&rawVariables, "var", nil, "Variable as name=value, repeatable")

	return evalCmd
}

func evaluateExpression(expression string, variables map[string]float64) (string, error) {
	formula, err := NewFormula(expression, nil, nil)
	if err != nil {
		return "", err
	}

	return formula.Evaluate(NewMapVariableLookup(variables)).String(), nil
}

func parseVariables(rawVariables []string) (map[string]float64, error) {
	variables := make(map[string]float64, len(rawVariables))

	for _, raw := range rawVariables {
		name, value, found := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("%w: variable `%s` should be name=value", RequestError, raw)
		}

		number, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: variable `%s`: %w", RequestError, name, err)
		}
		variables[name] = number
	}

	return variables, nil
}

func withSheetRepository(config Config, run func(repository *SheetRepository) error) (err error) {
	if err = config.Validate(); err != nil {
		return err
	}

	serviceContainer, err := BuildServiceContainer(config)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := serviceContainer.Close(); err == nil {
			err = closeErr
		}
	}()

	return run(serviceContainer.SheetRepository.(*SheetRepository))
}
