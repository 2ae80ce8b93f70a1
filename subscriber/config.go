package subscriber

import (
	"time"

	"github.com/chainwatch/watchtower/internal/werrors"
)

// ProgramConfig names one on-chain program to monitor and which event
// classes to subscribe to for it.
type ProgramConfig struct {
	ID                   string
	Name                 string
	MonitorAccounts      bool
	MonitorTransactions  bool
	MonitorLogs          bool
	InstructionFilters   []string
}

// Filters controls which accepted notifications become events, applied
// client-side as defense in depth against the server-side subscription
// parameters.
type Filters struct {
	IncludeFailed bool
	IncludeVotes  bool
	Commitment    string
}

// Config configures one Subscriber connection.
type Config struct {
	RPCURL                string
	WSURL                 string
	Timeout               time.Duration
	MaxReconnectAttempts  int
	ReconnectDelay        time.Duration
	Programs              []ProgramConfig
	Filters               Filters
}

// DefaultConfig returns a reasonable baseline for connecting to a node: a
// 30s handshake timeout, up to 5 reconnect attempts with a 5s delay between
// them, and "confirmed" commitment.
func DefaultConfig() Config {
	return Config{
		Timeout:              30 * time.Second,
		MaxReconnectAttempts: 5,
		ReconnectDelay:       5 * time.Second,
		Filters:              Filters{Commitment: "confirmed"},
	}
}

// Validate rejects a configuration missing the fields the connection loop
// depends on.
func (c Config) Validate() error {
	if c.WSURL == "" {
		return werrors.InvalidConfig("ws_url is required")
	}
	if len(c.Programs) == 0 {
		return werrors.InvalidConfig("at least one program must be configured")
	}
	for _, p := range c.Programs {
		if p.ID == "" {
			return werrors.InvalidConfig("program id is required")
		}
	}
	return nil
}
