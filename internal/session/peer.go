package session

import (
	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"
)

// newAPI builds the pion API used for all peer connections of a session,
// routing pion's internal logs through the supplied factory.
func newAPI(factory logging.LoggerFactory) *webrtc.API {
	if factory == nil {
		return webrtc.NewAPI()
	}
	engine := webrtc.SettingEngine{}
	engine.LoggerFactory = factory
	return webrtc.NewAPI(webrtc.WithSettingEngine(engine))
}

func newPeerConnection(api *webrtc.API, iceServers []webrtc.ICEServer) (*webrtc.PeerConnection, error) {
	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, NewError("create peer connection", err)
	}
	return pc, nil
}

// createOffer produces a local offer and installs it as the local
// description. The returned description includes any candidates gathered so
// far.
func createOffer(pc *webrtc.PeerConnection) (*webrtc.SessionDescription, error) {
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return nil, NewError("create offer", err)
	}

	if err = pc.SetLocalDescription(offer); err != nil {
		return nil, NewError("set local description", err)
	}

	return pc.LocalDescription(), nil
}

// createAnswer installs the remote offer, produces the answer and installs it
// as the local description.
func createAnswer(pc *webrtc.PeerConnection, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if err := pc.SetRemoteDescription(offer); err != nil {
		return nil, NewError("set remote description", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return nil, NewError("create answer", err)
	}

	if err = pc.SetLocalDescription(answer); err != nil {
		return nil, NewError("set local description", err)
	}

	return pc.LocalDescription(), nil
}
