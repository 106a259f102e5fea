package common

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic/ast"
	"github.com/rs/zerolog"
)

const JsonRpcVersion = "2.0"

// JSON-RPC error codes the client gives meaning to.
const (
	JsonRpcErrorParseException    = -32700
	JsonRpcErrorInvalidRequest    = -32600
	JsonRpcErrorMethodNotFound    = -32601
	JsonRpcErrorInvalidParams     = -32602
	JsonRpcErrorInternalException = -32603
	JsonRpcErrorServerSide        = -32000
)

type JsonRpcRequest struct {
	ID      interface{} `json:"id"`
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	// Positional (slice) or named (map/struct) parameters.
	Params interface{} `json:"params"`
}

func (r *JsonRpcRequest) MarshalZerologObject(e *zerolog.Event) {
	e.Str("method", r.Method).Interface("id", r.ID)
}

// JsonRpcError is the `error` member of a response. Data may carry a `stack` of
// formatted messages as produced by the node.
type JsonRpcError struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`

	rawData string
}

// RawData is the `data` member exactly as the node sent it, key order included.
func (e *JsonRpcError) RawData() string {
	return e.rawData
}

type JsonRpcResponse struct {
	ID     interface{}
	Result []byte
	Error  *JsonRpcError

	idRaw []byte
}

func (r *JsonRpcResponse) MarshalZerologObject(e *zerolog.Event) {
	e.Interface("id", r.ID).Int("resultSize", len(r.Result))
	if r.Error != nil {
		e.Int("errorCode", r.Error.Code).Str("errorMessage", r.Error.Message)
	}
}

// IdMatches compares the response id with a request id by their JSON encoding,
// so 0 and 0.0 are equal while "0" and 0 are not.
func (r *JsonRpcResponse) IdMatches(requestId interface{}) bool {
	want, err := SonicCfg.Marshal(requestId)
	if err != nil {
		return false
	}
	got := r.idRaw
	if len(got) == 0 {
		got, err = SonicCfg.Marshal(r.ID)
		if err != nil {
			return false
		}
	}
	got = bytes.TrimSpace(got)
	if bytes.Equal(got, want) {
		return true
	}
	if !isJsonNumber(got) || !isJsonNumber(want) {
		return false
	}
	var wantNum, gotNum float64
	if SonicCfg.Unmarshal(want, &wantNum) == nil && SonicCfg.Unmarshal(got, &gotNum) == nil {
		return wantNum == gotNum
	}
	return false
}

func isJsonNumber(b []byte) bool {
	return len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9'))
}

// IsEnvelope reports whether a body is a JSON object that looks like a JSON-RPC 2.0 response.
func IsEnvelope(body []byte) bool {
	root, err := ast.NewSearcher(string(body)).GetByPath()
	if err != nil || root.TypeSafe() != ast.V_OBJECT {
		return false
	}
	v, err := root.Get("jsonrpc").String()
	if err != nil || v != JsonRpcVersion {
		return false
	}
	return root.Get("result").Exists() || root.Get("error").Exists()
}

// HasJsonRpcError reports whether a body is a JSON object with a non-null `error` member.
func HasJsonRpcError(body []byte) bool {
	root, err := ast.NewSearcher(string(body)).GetByPath()
	if err != nil || root.TypeSafe() != ast.V_OBJECT {
		return false
	}
	errNode := root.Get("error")
	return errNode.Exists() && errNode.TypeSafe() != ast.V_NULL
}

// ParseJsonRpcResponse parses a single JSON-RPC response body.
func ParseJsonRpcResponse(body []byte) (*JsonRpcResponse, error) {
	root, err := ast.NewSearcher(string(body)).GetByPath()
	if err != nil {
		return nil, err
	}
	if root.TypeSafe() != ast.V_OBJECT {
		return nil, fmt.Errorf("unexpected json-rpc response type (not an object)")
	}

	resp := &JsonRpcResponse{}

	if idNode := root.Get("id"); idNode.Exists() {
		rawId, err := idNode.Raw()
		if err != nil {
			return nil, err
		}
		resp.idRaw = []byte(rawId)
		if err := SonicCfg.UnmarshalFromString(rawId, &resp.ID); err != nil {
			return nil, err
		}
	}

	if errNode := root.Get("error"); errNode.Exists() && errNode.TypeSafe() != ast.V_NULL {
		jrErr, err := parseJsonRpcError(errNode)
		if err != nil {
			return nil, err
		}
		resp.Error = jrErr
	}

	if resNode := root.Get("result"); resNode.Exists() {
		rawRes, err := resNode.Raw()
		if err != nil {
			return nil, err
		}
		resp.Result = []byte(rawRes)
	}

	if resp.Error == nil && resp.Result == nil {
		return nil, fmt.Errorf("json-rpc response has neither result nor error")
	}

	return resp, nil
}

func parseJsonRpcError(errNode *ast.Node) (*JsonRpcError, error) {
	if errNode.TypeSafe() != ast.V_OBJECT {
		rawErr, err := errNode.Raw()
		if err != nil {
			return nil, err
		}
		return &JsonRpcError{Code: JsonRpcErrorServerSide, Message: rawErr}, nil
	}

	jrErr := &JsonRpcError{}
	if codeNode := errNode.Get("code"); codeNode.Exists() {
		code, err := codeNode.Int64()
		if err != nil {
			return nil, fmt.Errorf("json-rpc error code is not a number: %w", err)
		}
		jrErr.Code = int(code)
	}
	if msgNode := errNode.Get("message"); msgNode.Exists() && msgNode.TypeSafe() == ast.V_STRING {
		msg, err := msgNode.String()
		if err != nil {
			return nil, err
		}
		jrErr.Message = msg
	}
	if dataNode := errNode.Get("data"); dataNode.Exists() && dataNode.TypeSafe() != ast.V_NULL {
		rawData, err := dataNode.Raw()
		if err != nil {
			return nil, err
		}
		jrErr.rawData = rawData
		if dataNode.TypeSafe() == ast.V_OBJECT {
			data := map[string]interface{}{}
			if err := SonicCfg.UnmarshalFromString(rawData, &data); err != nil {
				return nil, err
			}
			jrErr.Data = data
		} else {
			jrErr.Data = map[string]interface{}{"value": rawData}
		}
	}
	return jrErr, nil
}
