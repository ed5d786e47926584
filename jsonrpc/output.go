package jsonrpc

import "encoding/json"

// Output is a reply to a MethodCall: either Success or Failure.
type Output interface {
	isOutput()
	OutputID() ID
}

// Success carries a successful call result.
type Success struct {
	ID     ID
	Result json.RawMessage
}

func (Success) isOutput()      {}
func (s Success) OutputID() ID { return s.ID }

// Failure carries a call's error.
type Failure struct {
	ID    ID
	Error *Error
}

func (Failure) isOutput()      {}
func (f Failure) OutputID() ID { return f.ID }

type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// EncodeOutput serializes a Success or Failure as a response frame.
func EncodeOutput(out Output) ([]byte, error) {
	resp := wireResponse{JSONRPC: "2.0", ID: out.OutputID()}
	switch o := out.(type) {
	case Success:
		resp.Result = o.Result
	case Failure:
		resp.Error = o.Error
	}
	return json.Marshal(resp)
}

// DecodeOutput parses a response frame into Success or Failure.
func DecodeOutput(data []byte) (Output, error) {
	var resp wireResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return Failure{ID: resp.ID, Error: resp.Error}, nil
	}
	return Success{ID: resp.ID, Result: resp.Result}, nil
}

// NewSuccess builds a Success output by marshaling result.
func NewSuccess(id ID, result any) (Success, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return Success{}, err
	}
	return Success{ID: id, Result: b}, nil
}

// NewFailure builds a Failure output.
func NewFailure(id ID, err *Error) Failure {
	return Failure{ID: id, Error: err}
}
