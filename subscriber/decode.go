package subscriber

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/chainwatch/watchtower/domain/event"
	"github.com/chainwatch/watchtower/internal/werrors"
)

// DecodeNotification turns one raw push frame into zero or more
// ProgramEvents. A frame with no "method" field is a subscription
// acknowledgement or similar control message and decodes to nothing. An
// unrecognized method also decodes to nothing rather than erroring — only a
// malformed JSON frame is a DecodeFailure.
func DecodeNotification(raw []byte, filter *EventFilter) ([]*event.ProgramEvent, error) {
	if !gjson.ValidBytes(raw) {
		return nil, werrors.DecodeFailure(errMalformedFrame)
	}

	parsed := gjson.ParseBytes(raw)
	method := parsed.Get("method")
	if !method.Exists() {
		return nil, nil
	}

	slot := parsed.Get("params.result.context.slot").Uint()
	value := parsed.Get("params.result.value")

	switch method.String() {
	case "programNotification":
		return decodeProgramNotification(value, slot, filter), nil
	case "logsNotification":
		return decodeLogsNotification(value, slot, filter), nil
	default:
		return nil, nil
	}
}

var errMalformedFrame = errMsg("malformed notification frame")

type errMsg string

func (e errMsg) Error() string { return string(e) }

func decodeProgramNotification(value gjson.Result, slot uint64, filter *EventFilter) []*event.ProgramEvent {
	owner := value.Get("account.owner").String()
	cfg, ok := filter.ProgramConfig(owner)
	if !ok {
		return nil
	}

	pubkey := value.Get("pubkey").String()
	lamports := value.Get("account.lamports").Uint()

	evt := event.New(owner, cfg.Name, event.KindAccountChange, event.Payload{
		AccountChange: &event.AccountChangeData{
			Account:      pubkey,
			BalanceAfter: &lamports,
			Owner:        owner,
		},
	}).WithSlot(slot)

	return []*event.ProgramEvent{evt}
}

// decodeLogsNotification handles a log-mention notification, which can name
// more than one monitored program across its log lines; it produces one
// event per mentioned monitored program, parsed from the canonical
// "Program <id> invoke" preamble.
func decodeLogsNotification(value gjson.Result, slot uint64, filter *EventFilter) []*event.ProgramEvent {
	signature := value.Get("signature").String()

	var events []*event.ProgramEvent
	seen := make(map[string]bool)
	for _, line := range value.Get("logs").Array() {
		msg := line.String()
		programID, ok := extractInvokedProgramID(msg)
		if !ok || seen[programID] {
			continue
		}
		cfg, ok := filter.ProgramConfig(programID)
		if !ok {
			continue
		}
		seen[programID] = true

		evt := event.New(programID, cfg.Name, event.KindLogEntry, event.Payload{
			LogEntry: &event.LogEntryData{Message: msg},
		}).WithSlot(slot).WithSignature(signature)
		events = append(events, evt)
	}
	return events
}

// extractInvokedProgramID parses the canonical "Program <id> invoke [...]"
// log preamble that marks a program invocation.
func extractInvokedProgramID(line string) (string, bool) {
	if !strings.Contains(line, "Program ") || !strings.Contains(line, " invoke") {
		return "", false
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}
	return fields[1], true
}
