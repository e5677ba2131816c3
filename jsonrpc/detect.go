package jsonrpc

import "github.com/goccy/go-json"

// probe is used to sniff the shape of an incoming frame without committing to
// a concrete type: jsonrpc.Id is present on both requests and responses, and
// Method is present only on requests/notifications.
type probe struct {
	Id     *RequestId      `json:"id"`
	Method *string         `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *InnerError     `json:"error"`
}

// DetectMessageType inspects a raw JSON-RPC frame and reports which of
// Request, Notification or Response it is, without fully decoding it.
// Precedence: a frame carrying "error" or "result" is a Response; a frame
// carrying "method" and "id" is a Request; a frame carrying "method" alone is
// a Notification.
func DetectMessageType(data []byte) (MessageType, error) {
	var p probe
	if err := json.Unmarshal(data, &p); err != nil {
		return "", err
	}
	if p.Error != nil || p.Result != nil {
		return MessageTypeResponse, nil
	}
	if p.Method != nil {
		if p.Id != nil && !p.Id.IsZero() {
			return MessageTypeRequest, nil
		}
		return MessageTypeNotification, nil
	}
	if p.Id != nil {
		return MessageTypeResponse, nil
	}
	return "", ErrUnrecognizedMessage
}
