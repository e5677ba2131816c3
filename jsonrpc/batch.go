package jsonrpc

import (
	"encoding/json"
	"errors"
)

// BatchRequest represents a JSON-RPC 2.0 batch request as per specs.
type BatchRequest []*Request

// BatchResponse represents a JSON-RPC 2.0 batch response as per specs.
type BatchResponse []*Response

// UnmarshalJSON is a custom JSON unmarshaler for the BatchRequest type.
func (b *BatchRequest) UnmarshalJSON(data []byte) error {
	// First check if it's an empty array which is not allowed as per the specs
	if string(data) == "[]" {
		return errors.New("invalid batch request: empty array")
	}

	// Try to unmarshal as an array
	var requests []*Request
	err := json.Unmarshal(data, &requests)
	if err != nil {
		return err
	}

	if len(requests) == 0 {
		return errors.New("invalid batch request: empty array")
	}

	*b = requests
	return nil
}

// NewBatchResponseFromResponses builds a BatchResponse out of success responses.
func NewBatchResponseFromResponses(responses []*Response) BatchResponse {
	br := make(BatchResponse, 0, len(responses))
	br = append(br, responses...)
	return br
}

// NewBatchResponseFromErrors builds a BatchResponse out of error responses.
func NewBatchResponseFromErrors(errs []*Response) BatchResponse {
	br := make(BatchResponse, 0, len(errs))
	br = append(br, errs...)
	return br
}

// NewBatchResponseMixed builds a BatchResponse combining success and error responses.
func NewBatchResponseMixed(responses []*Response, errs []*Response) BatchResponse {
	br := make(BatchResponse, 0, len(responses)+len(errs))
	br = append(br, responses...)
	br = append(br, errs...)
	return br
}
