package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adarsh-codesOP/one2one/internal/logging"
	"github.com/Adarsh-codesOP/one2one/internal/sigclient"
)

var checkCmd = &cobra.Command{
	Use:   "check <room-id>",
	Short: "Check whether a room currently has an occupant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(strings.ToLower(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(roomID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logging.New("").WithField("|", "one2one")

	client := sigclient.NewClient(cfg.ServerURL, log)
	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Close()

	exists, replied := client.CheckRoom(roomID, cfg.CheckTimeout)
	switch {
	case !replied:
		fmt.Println("No reply from the server; the room state is unknown.")
	case exists:
		fmt.Printf("Room %s has an occupant waiting.\n", roomID)
	default:
		fmt.Printf("Room %s is empty.\n", roomID)
	}
	return nil
}
