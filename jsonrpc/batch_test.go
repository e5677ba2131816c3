package jsonrpc

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestBatchRequest_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantLen int
		wantErr bool
	}{
		{
			name: "valid batch request",
			data: `[
				{"jsonrpc": "2.0", "method": "sum", "params": [1,2,4], "id": 1},
				{"jsonrpc": "2.0", "method": "notify_hello", "params": [7]},
				{"jsonrpc": "2.0", "method": "subtract", "params": [42,23], "id": 2}
			]`,
			wantLen: 3,
			wantErr: false,
		},
		{
			name:    "empty array",
			data:    `[]`,
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			data:    `[{"jsonrpc": "2.0", "method": "sum", "params": [1,2,4], "id": 1},]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var br BatchRequest
			err := json.Unmarshal([]byte(tt.data), &br)
			if (err != nil) != tt.wantErr {
				t.Errorf("BatchRequest.UnmarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && len(br) != tt.wantLen {
				t.Errorf("BatchRequest.UnmarshalJSON() got length = %d, want %d", len(br), tt.wantLen)
			}
		})
	}
}

func TestBatchResponse_MarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		br      BatchResponse
		want    string
		wantErr bool
	}{
		{
			name: "mixed responses and errors",
			br: BatchResponse{
				&Response{Id: NewIntID(1), Jsonrpc: "2.0", Result: json.RawMessage(`{"result":3}`)},
				NewError(NewIntID(2), NewInnerError(InvalidRequest, "Invalid Request", nil)),
			},
			want:    `[{"id":1,"jsonrpc":"2.0","result":{"result":3}},{"error":{"code":-32600,"message":"Invalid Request"},"id":2,"jsonrpc":"2.0"}]`,
			wantErr: false,
		},
		{
			name:    "empty batch response",
			br:      BatchResponse{},
			want:    `[]`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.br)
			if (err != nil) != tt.wantErr {
				t.Errorf("BatchResponse.MarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				var gotObj, wantObj interface{}
				json.Unmarshal(got, &gotObj)
				json.Unmarshal([]byte(tt.want), &wantObj)

				if !reflect.DeepEqual(gotObj, wantObj) {
					t.Errorf("BatchResponse.MarshalJSON() = %v, want %v", string(got), tt.want)
				}
			}
		})
	}
}

func TestNewBatchResponseHelpers(t *testing.T) {
	responses := []*Response{
		{Id: NewIntID(1), Jsonrpc: "2.0", Result: json.RawMessage(`{"result":3}`)},
		{Id: NewIntID(2), Jsonrpc: "2.0", Result: json.RawMessage(`{"result":5}`)},
	}

	errs := []*Response{
		NewError(NewIntID(3), NewInnerError(InvalidRequest, "Invalid Request", nil)),
		NewError(NewIntID(4), NewInnerError(MethodNotFound, "Method not found", nil)),
	}

	t.Run("NewBatchResponseFromResponses", func(t *testing.T) {
		br := NewBatchResponseFromResponses(responses)
		if len(br) != len(responses) {
			t.Errorf("NewBatchResponseFromResponses() length = %d, want %d", len(br), len(responses))
		}
	})

	t.Run("NewBatchResponseFromErrors", func(t *testing.T) {
		br := NewBatchResponseFromErrors(errs)
		if len(br) != len(errs) {
			t.Errorf("NewBatchResponseFromErrors() length = %d, want %d", len(br), len(errs))
		}
	})

	t.Run("NewBatchResponseMixed", func(t *testing.T) {
		br := NewBatchResponseMixed(responses, errs)
		if len(br) != len(responses)+len(errs) {
			t.Errorf("NewBatchResponseMixed() length = %d, want %d", len(br), len(responses)+len(errs))
		}
	})
}
