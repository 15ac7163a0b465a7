package strategy

import "net/http"

// DefaultRedirectStatus is used when a strategy redirects without a status.
const DefaultRedirectStatus = http.StatusFound

// defaultMessageType is applied when a structured failure carries a message
// but no type.
const defaultMessageType = "error"

// Type discriminates the variants of [Result].
type Type int

const (
	TypeSuccess Type = iota + 1
	TypeFail
	TypeRedirect
	TypePass
)

func (t Type) String() string {
	switch t {
	case TypeSuccess:
		return "success"
	case TypeFail:
		return "fail"
	case TypeRedirect:
		return "redirect"
	case TypePass:
		return "pass"
	default:
		return "unknown"
	}
}

// Result is the normalized outcome of a strategy run. It is one of
// [SuccessResult], [FailResult], [RedirectResult] or [PassResult].
type Result interface {
	Type() Type
	isResult()
}

// SuccessResult reports an authenticated user. Info is whatever the strategy
// passed alongside the user and may be nil.
type SuccessResult struct {
	User any `json:"user"`
	Info any `json:"info,omitempty"`
}

// FailResult reports a failed authentication. A nil Challenge and a zero
// Status mean the strategy did not supply them. Message and MessageType are
// only set when the strategy failed with structured [Feedback].
type FailResult struct {
	Challenge   any    `json:"challenge,omitempty"`
	Status      int    `json:"status,omitempty"`
	Message     string `json:"message,omitempty"`
	MessageType string `json:"messageType,omitempty"`
}

// RedirectResult asks the caller to send the client to URL.
type RedirectResult struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
}

// PassResult means the strategy declined to make a decision.
type PassResult struct{}

func (SuccessResult) Type() Type  { return TypeSuccess }
func (FailResult) Type() Type     { return TypeFail }
func (RedirectResult) Type() Type { return TypeRedirect }
func (PassResult) Type() Type     { return TypePass }

func (SuccessResult) isResult()  {}
func (FailResult) isResult()     {}
func (RedirectResult) isResult() {}
func (PassResult) isResult()     {}

// Feedback is a structured failure challenge. Failing with a Feedback moves
// its fields to FailResult.Message and FailResult.MessageType instead of
// FailResult.Challenge.
type Feedback struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
}

// FeedbackMessager lets any value act as structured failure feedback. A
// value that also implements FeedbackTyper supplies the message type.
type FeedbackMessager interface {
	FeedbackMessage() string
}

type FeedbackTyper interface {
	FeedbackType() string
}

// newFailResult interprets the arguments of Context.Fail.
//
//	Fail()                  -> no challenge, no status
//	Fail(401)               -> status only; a second argument is ignored
//	Fail(0)                 -> same as Fail(); a zero status means none
//	Fail(Feedback{...}, s)  -> message/messageType, optional status
//	Fail(challenge, s)      -> literal challenge, optional status
func newFailResult(args []any) FailResult {
	var res FailResult
	if len(args) == 0 {
		return res
	}

	if status, ok := asStatus(args[0]); ok {
		res.Status = status
		return res
	}

	if fb, ok := asFeedback(args[0]); ok {
		res.Message = fb.Message
		res.MessageType = fb.Type
		if res.MessageType == "" {
			res.MessageType = defaultMessageType
		}
	} else {
		res.Challenge = args[0]
	}

	if len(args) > 1 {
		if status, ok := asStatus(args[1]); ok {
			res.Status = status
		}
	}
	return res
}

// asStatus reports whether v is numeric and returns it as a status code.
// Floats are truncated toward zero.
func asStatus(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// asFeedback extracts structured feedback from v. A value only counts as
// feedback when it carries a non-empty message or type.
func asFeedback(v any) (Feedback, bool) {
	var fb Feedback
	switch t := v.(type) {
	case Feedback:
		fb = t
	case *Feedback:
		if t == nil {
			return Feedback{}, false
		}
		fb = *t
	case map[string]string:
		fb = Feedback{Message: t["message"], Type: t["type"]}
	case map[string]any:
		msg, _ := t["message"].(string)
		typ, _ := t["type"].(string)
		fb = Feedback{Message: msg, Type: typ}
	case FeedbackMessager:
		fb.Message = t.FeedbackMessage()
		if typer, ok := v.(FeedbackTyper); ok {
			fb.Type = typer.FeedbackType()
		}
	default:
		return Feedback{}, false
	}
	if fb.Message == "" && fb.Type == "" {
		return Feedback{}, false
	}
	return fb, true
}
