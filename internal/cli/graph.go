package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/satyamitra/internal/pipeline"
)

// graphCmd prints the workflow graph
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the verification workflow as Graphviz DOT",
	Long: `Print the verification state machine in Graphviz DOT format.

Example:
  satyamitra graph | dot -Tpng -o workflow.png`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), pipeline.Describe())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
