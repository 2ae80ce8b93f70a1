// Package werrors provides the unified error taxonomy shared by the
// subscriber, engine, and notifier packages.
package werrors

import "fmt"

// Code identifies one of the pipeline's error kinds.
type Code string

const (
	CodeInvalidConfig       Code = "INVALID_CONFIG"
	CodeConnectionFailure   Code = "CONNECTION_FAILURE"
	CodeDecodeFailure       Code = "DECODE_FAILURE"
	CodeRuleTimeout         Code = "RULE_TIMEOUT"
	CodeRuleInternalFailure Code = "RULE_INTERNAL_FAILURE"
	CodeAlertPublishFailure Code = "ALERT_PUBLISH_FAILURE"
	CodeTransportFailure    Code = "TRANSPORT_FAILURE"
	CodeAuthenticationFail  Code = "AUTHENTICATION_FAILURE"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeChannelNotConfig    Code = "CHANNEL_NOT_CONFIGURED"
	CodeTemplateRender      Code = "TEMPLATE_RENDER_FAILURE"
	CodeShutdown            Code = "SHUTDOWN"
)

// Error is a structured error carrying a Code, a message, optional details,
// and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// WithDetails attaches a key/value pair and returns the same error for
// chaining.
func (e *Error) WithDetails(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates an Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error that wraps an existing error.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func InvalidConfig(message string) *Error {
	return New(CodeInvalidConfig, message)
}

func ConnectionFailure(err error) *Error {
	return Wrap(CodeConnectionFailure, "connection failure", err)
}

func DecodeFailure(err error) *Error {
	return Wrap(CodeDecodeFailure, "failed to decode notification", err)
}

func RuleTimeout(rule string) *Error {
	return New(CodeRuleTimeout, "rule evaluation timed out").WithDetails("rule", rule)
}

func RuleInternalFailure(rule string, err error) *Error {
	return Wrap(CodeRuleInternalFailure, "rule evaluation failed", err).WithDetails("rule", rule)
}

func AlertPublishFailure(err error) *Error {
	return Wrap(CodeAlertPublishFailure, "failed to publish alert", err)
}

func TransportFailure(channel string, err error) *Error {
	return Wrap(CodeTransportFailure, "transport send failed", err).WithDetails("channel", channel)
}

func AuthenticationFailure(channel string, err error) *Error {
	return Wrap(CodeAuthenticationFail, "authentication failed", err).WithDetails("channel", channel)
}

func RateLimited(channel string) *Error {
	return New(CodeRateLimited, "rate limit exceeded").WithDetails("channel", channel)
}

func ChannelNotConfigured(channel string) *Error {
	return New(CodeChannelNotConfig, "channel not configured").WithDetails("channel", channel)
}

func TemplateRenderFailure(channel string, err error) *Error {
	return Wrap(CodeTemplateRender, "template render failed", err).WithDetails("channel", channel)
}

func Shutdown(component string) *Error {
	return New(CodeShutdown, "component is shutting down").WithDetails("component", component)
}

// Is reports whether err is a *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if se, ok := err.(*Error); ok {
			e = se
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Code == code
}
