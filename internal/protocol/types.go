package protocol

import "encoding/json"

const (
	DefaultScheme = "ctrip"

	pluginPath = "://h5/plugin"
	paramQuery = "?jsparam="
)

// Values returned to the native host from the inbound entry point.
const (
	CallbackSuccess = 100
	CallbackFailure = -1
)

const (
	KeyService     = "service"
	KeyAction      = "action"
	KeyCallbackTag = "callback_tagname"
	KeyTagName     = "tagname"
	KeyParam       = "param"
	KeyPlatform    = "platform"
	KeyVersion     = "version"
)

const (
	TagVersionTooLow = "app_version_too_low"
	TagParamError    = "app_param_error"
)

// Request is one outbound call to the native host.
type Request struct {
	Service     string
	Action      string
	CallbackTag string
	Fields      map[string]any
}

// Encode returns the serialized envelope, or "" when Service or Action is empty.
func (r Request) Encode() string {
	return MakeParamString(r.Service, r.Action, r.Fields, r.CallbackTag)
}

// ProxyObject is the name of the global object the direct-call host injects
// for this request's service.
func (r Request) ProxyObject() string {
	return r.Service + "_a"
}

// Response is an envelope delivered by the native host. Fields other than
// tagname are not interpreted here.
type Response map[string]any

func (r Response) TagName() string {
	tag, _ := r[KeyTagName].(string)
	return tag
}

func VersionTooLow(startVersion, appVersion string) Response {
	return Response{
		KeyTagName:      TagVersionTooLow,
		"start_version": startVersion,
		"app_version":   appVersion,
	}
}

func ParamError(description string) Response {
	return Response{
		KeyTagName:    TagParamError,
		"description": description,
	}
}

// Trace is what the host simulator broadcasts to monitor sessions.
type Trace struct {
	Direction string          `json:"direction"`
	Session   string          `json:"session"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}
