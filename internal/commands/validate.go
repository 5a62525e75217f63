package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/treatment-calendar/internal/program"
)

var errRejected = errors.New("program rejected")

func newValidateCmd() *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a treatment program file as the API would",
		Long:  `Validates FILE ("-" for stdin) against the given date and prints the result.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseDateFlag(dateFlag)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			_, res := program.DecodeAndValidate(data, at)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.IsValid {
				return errRejected
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Validate as of this date (YYYY-MM-DD, default today)")
	return cmd
}

// parseDateFlag reads a YYYY-MM-DD flag in local time; empty means now.
func parseDateFlag(v string) (time.Time, error) {
	if v == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation(program.DateLayout, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", v)
	}
	return t, nil
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}
	return data, nil
}
