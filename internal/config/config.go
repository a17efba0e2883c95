package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pion/webrtc/v4"
)

// Environment variable names.
const (
	envPort           = "PORT"
	envAllowedOrigins = "ALLOWED_ORIGINS"
	envServerURL      = "SERVER_URL"
	envSTUNServer     = "STUN_SERVER"
	envTURNServer     = "TURN_SERVER"
	envTURNUsername   = "TURN_USERNAME"
	envTURNPassword   = "TURN_PASSWORD"
	envCheckTimeout   = "CHECK_TIMEOUT"
)

// Default configuration values.
const (
	DefaultPort         = "3001"
	DefaultServerURL    = "ws://localhost:3001/ws"
	DefaultSTUN         = "stun:stun.l.google.com:19302"
	DefaultCheckTimeout = 2 * time.Second

	DefaultVideoRTPAddr  = "127.0.0.1:5004"
	DefaultAudioRTPAddr  = "127.0.0.1:5006"
	DefaultVideoOutAddr  = "127.0.0.1:6004"
	DefaultAudioOutAddr  = "127.0.0.1:6006"
	DefaultVideoMimeType = webrtc.MimeTypeVP8
	DefaultAudioMimeType = webrtc.MimeTypeOpus
)

// Server holds the signaling server configuration.
type Server struct {
	// Port the HTTP/websocket listener binds to.
	Port string

	// AllowedOrigins for the websocket upgrade. "*" allows every origin.
	AllowedOrigins []string
}

// LoadServer reads the server configuration from the environment.
func LoadServer() *Server {
	port := os.Getenv(envPort)
	if port == "" {
		port = DefaultPort
	}

	origins := []string{"*"}
	if v := os.Getenv(envAllowedOrigins); v != "" {
		origins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Server{Port: port, AllowedOrigins: origins}
}

// OriginAllowed reports whether the given Origin header value may upgrade.
// An absent origin (non-browser client) is always allowed.
func (s *Server) OriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range s.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// Client holds the CLI client configuration.
type Client struct {
	// ServerURL is the websocket endpoint of the signaling server.
	ServerURL string

	// ICE servers for the peer connection.
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	// CheckTimeout bounds the wait for a check-room reply before the client
	// falls back to joining optimistically.
	CheckTimeout time.Duration

	// Local RTP addresses for the media capability: ingest from the local
	// encoder, forward out to the local player.
	VideoRTPAddr  string
	AudioRTPAddr  string
	VideoOutAddr  string
	AudioOutAddr  string
	VideoMimeType string
	AudioMimeType string
}

// Options carries CLI flag overrides into LoadClient.
type Options struct {
	ConfigFile string
	ServerURL  string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// fileConfig is the optional TOML config file shape.
type fileConfig struct {
	ServerURL    string `toml:"server_url"`
	STUNServer   string `toml:"stun_server"`
	TURNServer   string `toml:"turn_server"`
	TURNUsername string `toml:"turn_username"`
	TURNPassword string `toml:"turn_password"`
	VideoRTPAddr string `toml:"video_rtp_addr"`
	AudioRTPAddr string `toml:"audio_rtp_addr"`
	VideoOutAddr string `toml:"video_out_addr"`
	AudioOutAddr string `toml:"audio_out_addr"`
}

// LoadClient reads the client configuration. Priority per value: CLI flag,
// then environment, then config file, then the hardcoded default.
func LoadClient(opts Options) (*Client, error) {
	var file fileConfig
	if opts.ConfigFile != "" {
		if _, err := toml.DecodeFile(opts.ConfigFile, &file); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Client{
		ServerURL:     pick(opts.ServerURL, os.Getenv(envServerURL), file.ServerURL, DefaultServerURL),
		STUNServer:    pick(opts.STUNServer, os.Getenv(envSTUNServer), file.STUNServer, DefaultSTUN),
		TURNServer:    pick(opts.TURNServer, os.Getenv(envTURNServer), file.TURNServer, ""),
		TURNUser:      pick(opts.TURNUser, os.Getenv(envTURNUsername), file.TURNUsername, ""),
		TURNPass:      pick(opts.TURNPass, os.Getenv(envTURNPassword), file.TURNPassword, ""),
		CheckTimeout:  DefaultCheckTimeout,
		VideoRTPAddr:  pick(file.VideoRTPAddr, DefaultVideoRTPAddr),
		AudioRTPAddr:  pick(file.AudioRTPAddr, DefaultAudioRTPAddr),
		VideoOutAddr:  pick(file.VideoOutAddr, DefaultVideoOutAddr),
		AudioOutAddr:  pick(file.AudioOutAddr, DefaultAudioOutAddr),
		VideoMimeType: DefaultVideoMimeType,
		AudioMimeType: DefaultAudioMimeType,
	}

	if v := os.Getenv(envCheckTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", envCheckTimeout, err)
		}
		cfg.CheckTimeout = d
	}

	return cfg, nil
}

// ICEServers builds the pion ICE server list from the configuration.
func (c *Client) ICEServers() []webrtc.ICEServer {
	servers := []webrtc.ICEServer{{URLs: []string{c.STUNServer}}}
	if c.TURNServer != "" {
		servers = append(servers, webrtc.ICEServer{
			URLs:       []string{c.TURNServer},
			Username:   c.TURNUser,
			Credential: c.TURNPass,
		})
	}
	return servers
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
