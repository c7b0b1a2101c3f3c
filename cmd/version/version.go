package version

import (
	"github.com/opstrack/opstrack/internal/version"
	"github.com/spf13/cobra"
)

func NewCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the opstrack version",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				cmd.Println(version.Short())
				return
			}

			cmd.Println("opstrack version", version.Full())
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print the version number only")

	return cmd
}
