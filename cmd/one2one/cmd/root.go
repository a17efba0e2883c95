package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adarsh-codesOP/one2one/internal/config"
	"github.com/Adarsh-codesOP/one2one/internal/version"
)

var (
	flagConfigFile string
	flagServerURL  string
	flagSTUN       string
	flagTURN       string
	flagTURNUser   string
	flagTURNPass   string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "one2one",
	Short:   "Pairwise video calls over WebRTC, brokered by the One2One signaling server",
	Long: `One2One connects exactly two peers in a short-lived room. Media flows
peer to peer; the signaling server only brokers the session setup (offer,
answer and ICE candidate exchange).

Local capture and playback stay outside the core: feed RTP into the ingest
ports (see --help of the join command) and point a player at the output
ports.`,
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server", "", "signaling server websocket URL")
	rootCmd.PersistentFlags().StringVar(&flagSTUN, "stun", "", "STUN server URL")
	rootCmd.PersistentFlags().StringVar(&flagTURN, "turn", "", "TURN server URL")
	rootCmd.PersistentFlags().StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	rootCmd.PersistentFlags().StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
}

func loadConfig() (*config.Client, error) {
	return config.LoadClient(config.Options{
		ConfigFile: flagConfigFile,
		ServerURL:  flagServerURL,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
	})
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main().
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
