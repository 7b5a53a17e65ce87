package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// NewRecordsCmd prints the plan's persistence records as JSON lines.
func NewRecordsCmd() *cobra.Command {
	var planPath, session string
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Emit procedure records for a plan as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireFlag("plan", planPath); err != nil {
				return err
			}
			s := env.newSimulator(session, nil)
			defer s.Close()
			if _, err := prepare(cmd.Context(), s, sources{plan: planPath, planOnly: true}); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range s.Records() {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&planPath, "plan", "p", "", "procedure plan (YAML or JSON)")
	cmd.Flags().StringVar(&session, "session", "", "session id; random when empty")
	return cmd
}
