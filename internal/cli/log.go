// log.go implements the "leonard log" command for reading debug logs.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rsdouglas/leonard/internal/log"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Pretty-print a debug log",
	Long: `Print the records of a debug log written with --log-file, one block per
prompt or reply. Several sessions may share a file; --session selects one by
its id or an id prefix.`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

var (
	logPathFlag    string
	logSessionFlag string
)

func init() {
	logCmd.Flags().StringVar(&logPathFlag, "file", "", "Debug log to read")
	logCmd.Flags().StringVar(&logSessionFlag, "session", "", "Only show records from this session")
	_ = logCmd.MarkFlagRequired("file")
}

func runLog(cmd *cobra.Command, args []string) error {
	events, err := log.ReadAll(logPathFlag)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	shown := 0
	for _, ev := range events {
		if logSessionFlag != "" && !strings.HasPrefix(ev.Session, logSessionFlag) {
			continue
		}
		fmt.Fprint(out, log.Format(ev))
		shown++
	}
	if shown == 0 {
		return fmt.Errorf("no records in %s", logPathFlag)
	}
	return nil
}
