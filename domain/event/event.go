// Package event defines the ProgramEvent type produced by the subscriber
// and consumed by the engine.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Kind tags which payload variant an event carries.
type Kind int

const (
	KindTransaction Kind = iota
	KindAccountChange
	KindLogEntry
	KindInstruction
	KindTokenTransfer
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindTransaction:
		return "transaction"
	case KindAccountChange:
		return "account_change"
	case KindLogEntry:
		return "log_entry"
	case KindInstruction:
		return "instruction"
	case KindTokenTransfer:
		return "token_transfer"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// TransactionData is the payload for KindTransaction.
type TransactionData struct {
	Signature     string
	Success       bool
	ComputeUnits  *uint64
	Fee           uint64
}

// AccountChangeData is the payload for KindAccountChange.
type AccountChangeData struct {
	Account        string
	BalanceBefore  *uint64
	BalanceAfter   *uint64
	DataSizeChange int64
	Owner          string
}

// LogLevel is a best-effort parse of a log line's severity prefix.
type LogLevel int

const (
	LogLevelUnknown LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// ParseLogLevel recognizes the common prefixes; returns LogLevelUnknown,
// false when nothing matches.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch lower(s) {
	case "error", "err":
		return LogLevelError, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "info":
		return LogLevelInfo, true
	case "debug":
		return LogLevelDebug, true
	case "trace":
		return LogLevelTrace, true
	default:
		return LogLevelUnknown, false
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// LogEntryData is the payload for KindLogEntry.
type LogEntryData struct {
	Message           string
	Level             *LogLevel
	InstructionIndex  *int
}

// InstructionData is the payload for KindInstruction.
type InstructionData struct {
	Index    int
	Data     []byte
	Accounts []string
	Success  bool
}

// TokenTransferData is the payload for KindTokenTransfer.
type TokenTransferData struct {
	From     string
	To       string
	Amount   uint64
	Mint     string
	Decimals uint8
}

// CustomData is the payload for KindCustom.
type CustomData struct {
	Name string
	Data map[string]interface{}
}

// Payload holds exactly one of the kind-specific variants, chosen by Kind.
type Payload struct {
	Transaction    *TransactionData
	AccountChange  *AccountChangeData
	LogEntry       *LogEntryData
	Instruction    *InstructionData
	TokenTransfer  *TokenTransferData
	Custom         *CustomData
}

// ProgramEvent is a single observed on-chain occurrence attributed to one
// monitored program.
type ProgramEvent struct {
	ID           string
	ProgramID    string
	ProgramName  string
	Kind         Kind
	CustomKind   string // set only when Kind == KindCustom
	Timestamp    time.Time
	Slot         uint64
	BlockTime    *int64
	Signature    *string
	Payload      Payload
	Metadata     map[string]interface{}
}

// New constructs a ProgramEvent with a fresh id and the construction-time
// timestamp. Slot defaults to 0; the subscriber fills it in via WithSlot.
func New(programID, programName string, kind Kind, payload Payload) *ProgramEvent {
	return &ProgramEvent{
		ID:          uuid.NewString(),
		ProgramID:   programID,
		ProgramName: programName,
		Kind:        kind,
		Timestamp:   time.Now().UTC(),
		Payload:     payload,
		Metadata:    make(map[string]interface{}),
	}
}

// NewCustom constructs a KindCustom event with the given custom type name.
func NewCustom(programID, programName, customKind string, data CustomData) *ProgramEvent {
	e := New(programID, programName, KindCustom, Payload{Custom: &data})
	e.CustomKind = customKind
	return e
}

// WithMetadata sets a metadata key and returns the event for chaining.
func (e *ProgramEvent) WithMetadata(key string, value interface{}) *ProgramEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithSlot sets the chain slot and returns the event for chaining.
func (e *ProgramEvent) WithSlot(slot uint64) *ProgramEvent {
	e.Slot = slot
	return e
}

// WithBlockTime sets the optional block timestamp and returns the event for
// chaining.
func (e *ProgramEvent) WithBlockTime(blockTime int64) *ProgramEvent {
	e.BlockTime = &blockTime
	return e
}

// WithSignature sets the optional transaction signature and returns the
// event for chaining.
func (e *ProgramEvent) WithSignature(signature string) *ProgramEvent {
	e.Signature = &signature
	return e
}

// KindString returns the event's kind as the string a rule or log line
// would key on, honoring Custom's dynamic name.
func (e *ProgramEvent) KindString() string {
	if e.Kind == KindCustom && e.CustomKind != "" {
		return e.CustomKind
	}
	return e.Kind.String()
}

// IsTransaction reports whether this event carries transaction data.
func (e *ProgramEvent) IsTransaction() bool { return e.Kind == KindTransaction }

// IsAccountChange reports whether this event carries account-change data.
func (e *ProgramEvent) IsAccountChange() bool { return e.Kind == KindAccountChange }

// IsLogEntry reports whether this event carries log data.
func (e *ProgramEvent) IsLogEntry() bool { return e.Kind == KindLogEntry }

// Successful reports the success flag for transaction and instruction
// events; the second return is false for event kinds with no such concept.
func (e *ProgramEvent) Successful() (bool, bool) {
	switch {
	case e.Payload.Transaction != nil:
		return e.Payload.Transaction.Success, true
	case e.Payload.Instruction != nil:
		return e.Payload.Instruction.Success, true
	default:
		return false, false
	}
}

// Clone returns a deep-enough copy suitable for history snapshots: the
// payload pointers are re-pointed to copies of their pointees, and the
// metadata map is copied.
func (e *ProgramEvent) Clone() *ProgramEvent {
	c := *e
	if e.BlockTime != nil {
		bt := *e.BlockTime
		c.BlockTime = &bt
	}
	if e.Signature != nil {
		sig := *e.Signature
		c.Signature = &sig
	}
	c.Payload = clonePayload(e.Payload)
	c.Metadata = make(map[string]interface{}, len(e.Metadata))
	for k, v := range e.Metadata {
		c.Metadata[k] = v
	}
	return &c
}

func clonePayload(p Payload) Payload {
	out := Payload{}
	if p.Transaction != nil {
		t := *p.Transaction
		out.Transaction = &t
	}
	if p.AccountChange != nil {
		a := *p.AccountChange
		out.AccountChange = &a
	}
	if p.LogEntry != nil {
		l := *p.LogEntry
		out.LogEntry = &l
	}
	if p.Instruction != nil {
		i := *p.Instruction
		accounts := make([]string, len(p.Instruction.Accounts))
		copy(accounts, p.Instruction.Accounts)
		i.Accounts = accounts
		data := make([]byte, len(p.Instruction.Data))
		copy(data, p.Instruction.Data)
		i.Data = data
		out.Instruction = &i
	}
	if p.TokenTransfer != nil {
		tt := *p.TokenTransfer
		out.TokenTransfer = &tt
	}
	if p.Custom != nil {
		custom := *p.Custom
		dataCopy := make(map[string]interface{}, len(p.Custom.Data))
		for k, v := range p.Custom.Data {
			dataCopy[k] = v
		}
		custom.Data = dataCopy
		out.Custom = &custom
	}
	return out
}
