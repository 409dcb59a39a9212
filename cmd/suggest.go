package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/common"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/copilot"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/diff"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/logger"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const (
	outputFormatText     = "text"
	outputFormatJSON     = "json"
	outputFormatMarkdown = "markdown"

	wrapWidth = 100
)

// newClient builds the completion client; nil uses the configured provider
var newClient copilot.ClientFactory

var headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#bb9af7"))

type suggestOutput struct {
	File         string `json:"file,omitempty"`
	ImprovedCode string `json:"improved_code"`
	Explanation  string `json:"explanation"`
	Diff         string `json:"diff"`
	Added        int    `json:"added"`
	Removed      int    `json:"removed"`
	Integrated   bool   `json:"integrated"`
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest an improvement of a code file",
	Long: `Send the code of a file (or stdin with --file -) and an instruction to the LLM,
then print the improved code, the explanation and the diff against the original.
With --integrate the improved code is written back to the file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		instruction, _ := cmd.Flags().GetString("instruction")
		apiKey, _ := cmd.Flags().GetString("api-key")
		integrate, _ := cmd.Flags().GetBool("integrate")
		plain, _ := cmd.Flags().GetBool("plain")
		format, _ := cmd.Flags().GetString("format")

		switch format {
		case outputFormatText, outputFormatJSON, outputFormatMarkdown:
		default:
			return fmt.Errorf("unsupported output format: %s", format)
		}
		if integrate && file == "-" {
			return fmt.Errorf("--integrate needs a file, not stdin")
		}

		s := settings
		applyProviderFlags(cmd, &s)
		if err := s.Validate(); err != nil {
			return err
		}
		logger.Debugf("Using settings: provider=%s model=%s timeout=%ds", s.Provider, s.ModelName(), s.APITimeout)

		code, err := readSource(file, cmd.InOrStdin())
		if err != nil {
			return err
		}

		if strings.TrimSpace(apiKey) == "" {
			apiKey = s.APIKey()
		}

		requester := copilot.NewRequester(s, newClient)
		sess := copilot.NewSession("cli", code)
		round, err := requester.Submit(cmd.Context(), sess, apiKey, code, instruction)
		if err != nil {
			return fmt.Errorf("suggestion failed (%s): %w", copilot.KindOf(err), err)
		}

		if integrate {
			if err := sess.Integrate(); err != nil {
				return err
			}
			if err := writeBack(file, sess.WorkingCode); err != nil {
				return err
			}
			logger.Infof("Integrated the suggestion into %s", file)
		}

		out := cmd.OutOrStdout()
		switch format {
		case outputFormatMarkdown:
			_, err := fmt.Fprint(out, round.Markdown(s.CodeLanguage))
			return err
		case outputFormatJSON:
			added, removed := diff.Stats(string(round.Diff))
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(suggestOutput{
				File:         file,
				ImprovedCode: round.Result.ImprovedCode,
				Explanation:  round.Result.Explanation,
				Diff:         string(round.Diff),
				Added:        added,
				Removed:      removed,
				Integrated:   integrate,
			})
		default:
			return printRound(out, round, plain, integrate)
		}
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)

	suggestCmd.Flags().StringP("file", "f", "", "Code file to improve, - reads stdin")
	suggestCmd.Flags().StringP("instruction", "i", "", "What to change in the code")
	suggestCmd.Flags().String("api-key", "", "API key of the LLM provider (defaults to LLM_API_KEY or the provider's variable)")
	suggestCmd.Flags().Bool("integrate", false, "Write the improved code back to the file")
	suggestCmd.Flags().Bool("plain", false, "Print without colors and markdown rendering")
	suggestCmd.Flags().String("format", outputFormatText, "Output format: text, json or markdown")
	addProviderFlags(suggestCmd)
	_ = suggestCmd.MarkFlagRequired("file")
}

func readSource(file string, stdin io.Reader) (string, error) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", file, err)
	}
	return string(data), nil
}

func writeBack(file, code string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(file); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(file, []byte(code), mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	return nil
}

func printRound(w io.Writer, round *copilot.Round, plain, integrated bool) error {
	heading := func(title string) string {
		if plain {
			return "## " + title
		}
		return headingStyle.Render(title)
	}

	explanation := common.WrapText(round.Result.Explanation, wrapWidth)
	unified := string(round.Diff)
	if !plain {
		rendered, err := renderMarkdown(round.Result.Explanation)
		if err != nil {
			logger.Warnf("Failed to render the explanation, printing it as is: %v", err)
		} else {
			explanation = rendered
		}
		unified = diff.Colorize(unified)
	}
	if unified == "" {
		unified = "No changes.\n"
	}

	fmt.Fprintln(w, heading("Improved code"))
	fmt.Fprintln(w, strings.TrimSuffix(round.Result.ImprovedCode, "\n"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, heading("Explanation"))
	fmt.Fprintln(w, strings.TrimRight(explanation, "\n"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, heading("Diff"))
	fmt.Fprint(w, unified)
	if integrated {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Code integrated.")
	}
	return nil
}

func renderMarkdown(markdown string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return "", err
	}
	return r.Render(markdown)
}
