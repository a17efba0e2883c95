package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Adarsh-codesOP/one2one/internal/logging"
	"github.com/Adarsh-codesOP/one2one/internal/media"
	"github.com/Adarsh-codesOP/one2one/internal/session"
	"github.com/Adarsh-codesOP/one2one/internal/sigclient"
)

var joinCmd = &cobra.Command{
	Use:   "join [room-id]",
	Short: "Join a room, or create one when no room id is given",
	Long: `Join connects to the signaling server, acquires local media from the RTP
ingest ports and negotiates a peer connection with whoever else is in the
room. Without an argument a fresh room id is minted and printed, to be shared
with the other side.

Examples:
  one2one join
  one2one join ab12cd34
  one2one join ab12cd34 --server ws://localhost:3001/ws`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID := ""
		if len(args) == 1 {
			roomID = strings.ToLower(args[0])
		}
		return runJoin(roomID)
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
}

// NewRoomID mints a short room token the same way the web client does: the
// first eight hex characters of a fresh UUID.
func NewRoomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func runJoin(roomID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New("")
	log := logger.WithField("|", "one2one")

	created := roomID == ""
	if created {
		roomID = NewRoomID()
		fmt.Println("Room ID:", roomID)
	}

	client := sigclient.NewClient(cfg.ServerURL, log)
	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Close()

	// Advisory only: an empty room just means we are first. The join goes
	// ahead either way, including when the reply never arrives.
	if !created {
		if exists, replied := client.CheckRoom(roomID, cfg.CheckTimeout); replied && !exists {
			fmt.Println("Nobody is in this room yet; waiting for your peer.")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess := session.New(session.Config{
		RoomID:        roomID,
		MemberID:      uuid.NewString(),
		Signaler:      client,
		Capability:    media.NewCapability(cfg, log),
		Sink:          media.NewForwarder(cfg, log),
		ICEServers:    cfg.ICEServers(),
		LoggerFactory: logging.NewPionFactory(logger),
		Log:           log,
		OnStateChange: func(state session.State) {
			fmt.Println("Status:", state)
		},
	})
	defer sess.Close()

	handler := sigclient.NewHandler(client)
	go handler.Start()

	if err := sess.Start(ctx); err != nil {
		return err
	}

	fmt.Printf("Feed RTP into %s (video) and %s (audio); remote media comes out at %s and %s.\n",
		cfg.VideoRTPAddr, cfg.AudioRTPAddr, cfg.VideoOutAddr, cfg.AudioOutAddr)

	for {
		select {
		case peerID := <-handler.UserConnected:
			if err := sess.OnPeerConnected(peerID); err != nil {
				log.WithError(err).Error("offer failed")
			}

		case <-handler.UserDisconnected:
			fmt.Println("Status: peer disconnected")
			sess.OnPeerDisconnected()

		case desc := <-handler.Offer:
			if err := sess.OnOfferReceived(desc); err != nil {
				log.WithError(err).Error("answer failed")
			}

		case desc := <-handler.Answer:
			if err := sess.OnAnswerReceived(desc); err != nil {
				log.WithError(err).Error("invalid answer")
			}

		case cand := <-handler.Candidate:
			if err := sess.OnIceCandidateReceived(cand); err != nil {
				log.WithError(err).Warn("candidate rejected")
			}

		case <-handler.Disconnected:
			return fmt.Errorf("signaling connection lost")

		case <-ctx.Done():
			fmt.Println("Leaving room.")
			return nil
		}
	}
}
