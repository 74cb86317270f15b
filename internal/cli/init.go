// init.go implements the "leonard init" command.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rsdouglas/leonard/internal/config"
	"github.com/rsdouglas/leonard/internal/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .leonard/config.yaml",
	Long: `Write .leonard/config.yaml with the built-in defaults so they can be
edited, and make sure .env (where API keys may live) is gitignored.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var forceFlag bool

func init() {
	initCmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing config without asking")
}

func runInit(cmd *cobra.Command, args []string) error {
	ws, err := workspace.Open(cwdFlag)
	if err != nil {
		return fmt.Errorf("invalid working directory: %w", err)
	}
	out := cmd.OutOrStdout()

	path := config.Path(ws.Dir)
	if _, statErr := os.Stat(path); statErr == nil && !forceFlag {
		fmt.Fprintf(out, "Warning: %s already exists.\n", path)
		fmt.Fprint(out, "Overwrite? [y/N]: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if err := config.WriteConfig(ws.Dir, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Configuration written to %s\n", path)

	if err := ensureGitignore(ws.Dir); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to set up .gitignore: %v\n", err)
	}

	contextPath := filepath.Join(ws.Dir, cfg.Relay.ContextFile)
	if _, statErr := os.Stat(contextPath); errors.Is(statErr, fs.ErrNotExist) {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Tip: describe the project in %s and it will be sent with every task.\n", cfg.Relay.ContextFile)
	}
	return nil
}

// ensureGitignore appends the entries leonard relies on being ignored to
// dir/.gitignore, skipping any that are already listed.
func ensureGitignore(dir string) error {
	gitignorePath := filepath.Join(dir, ".gitignore")

	requiredEntries := []string{
		// Credentials loaded by leonard
		".env",
		// Default debug log location
		".leonard/*.log",
		".leonard/*.log.slog",
	}

	existing := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existing = string(data)
	}
	present := make(map[string]bool)
	for _, line := range strings.Split(existing, "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range requiredEntries {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var toAppend strings.Builder
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		toAppend.WriteString("\n")
	}
	if existing != "" {
		toAppend.WriteString("\n# Added by leonard init\n")
	}
	for _, entry := range missing {
		toAppend.WriteString(entry + "\n")
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening .gitignore: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(toAppend.String()); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}
