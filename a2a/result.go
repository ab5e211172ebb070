package a2a

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// ErrMalformedEnvelope is returned by DecodeResult when the body is not a JSON object.
var ErrMalformedEnvelope = errors.New("malformed response envelope")

// Result is the outcome of a message/send call. It is a closed set:
// StructuredText or RawEnvelope.
type Result interface {
	// Text returns the displayable payload.
	Text() string
	isResult()
}

// StructuredText is the first text part found in the task's artifacts.
type StructuredText struct {
	Content  string
	Artifact string // name of the artifact the text came from, if any
}

// Text implements Result.
func (s StructuredText) Text() string { return s.Content }

func (StructuredText) isResult() {}

// RawEnvelope is the fallback when no artifact text exists: the whole
// response envelope, pretty printed.
type RawEnvelope struct {
	JSON string
}

// Text implements Result.
func (r RawEnvelope) Text() string { return r.JSON }

func (RawEnvelope) isResult() {}

// artifactEnvelope is the subset of a message/send response that carries
// artifact text. Text is a pointer so an explicitly empty text still counts
// as the first text field.
type artifactEnvelope struct {
	Result *struct {
		Artifacts []struct {
			Name  string `json:"name"`
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"artifacts"`
	} `json:"result"`
}

// DecodeResult decodes a raw JSON-RPC response body.
//
// A body that is not a JSON object yields ErrMalformedEnvelope. A populated
// "error" member yields an *RPCError. Otherwise the first text field of any
// result artifact part becomes StructuredText; if none exists, or the result
// does not match the artifact shape, the envelope is returned as RawEnvelope.
func DecodeResult(raw []byte) (Result, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedEnvelope)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected object, got %s", ErrMalformedEnvelope, root.Type)
	}

	if e := root.Get("error"); e.Exists() && e.Type != gjson.Null {
		rpcErr := &RPCError{}
		if err := json.Unmarshal([]byte(e.Raw), rpcErr); err != nil {
			return nil, fmt.Errorf("%w: unreadable error member: %v", ErrMalformedEnvelope, err)
		}
		return nil, rpcErr
	}

	var env artifactEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Result != nil {
		for _, a := range env.Result.Artifacts {
			for _, p := range a.Parts {
				if p.Text != nil {
					return StructuredText{Content: *p.Text, Artifact: a.Name}, nil
				}
			}
		}
	}

	return RawEnvelope{JSON: Pretty(raw)}, nil
}

// Pretty formats a JSON document with two-space indentation.
func Pretty(raw []byte) string {
	return strings.TrimRight(string(pretty.Pretty(raw)), "\n")
}
