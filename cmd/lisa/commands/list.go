package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arbal/LISAv2/pkg/suites"
	"github.com/arbal/LISAv2/pkg/testsuite"
)

type caseListing struct {
	Name        string   `json:"name"`
	Suite       string   `json:"suite"`
	Area        string   `json:"area"`
	Category    string   `json:"category"`
	Priority    int      `json:"priority"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
}

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the test cases compiled into this binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := testsuite.NewRegistry(zerolog.Nop())
			if err := suites.RegisterAll(registry); err != nil {
				return fmt.Errorf("register suites: %w", err)
			}

			var listings []caseListing
			for _, c := range registry.Cases() {
				listings = append(listings, caseListing{
					Name:        c.FullName(),
					Suite:       c.Suite.Name,
					Area:        c.Suite.Area,
					Category:    c.Suite.Category,
					Priority:    c.Priority,
					Tags:        c.Suite.Tags,
					Description: c.Description,
				})
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(listings)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tAREA\tCATEGORY\tPRIORITY\tDESCRIPTION")
			for _, l := range listings {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", l.Name, l.Area, l.Category, l.Priority, l.Description)
			}
			return w.Flush()
		},
	}
	return cmd
}
