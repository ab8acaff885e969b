package match

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var ErrMalformedInput = errors.New("malformed input")

//go:embed request.schema.json
var requestSchemaJSON string

// snapshotSchema is the GameState half of the envelope schema, used for
// bare snapshot documents.
var requestSchema, snapshotSchema = compileSchemas()

func compileSchemas() (*jsonschema.Schema, *jsonschema.Schema) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("request.schema.json", strings.NewReader(requestSchemaJSON)); err != nil {
		panic(fmt.Sprintf("match: request schema: %v", err))
	}
	return c.MustCompile("request.schema.json"), c.MustCompile("request.schema.json#/properties/GameState")
}

// Request is one inbound notification: a discrete action, a fresh snapshot,
// or both.
type Request struct {
	Action    Action
	GameState *Snapshot
}

type wireRequest struct {
	Action    json.RawMessage `json:"Action"`
	GameState *Snapshot       `json:"GameState"`
}

// ParseRequest decodes and schema-checks a notification payload. Every
// failure wraps ErrMalformedInput.
func ParseRequest(data []byte) (Request, error) {
	if err := check(requestSchema, data); err != nil {
		return Request{}, err
	}

	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	req := Request{GameState: w.GameState}
	if len(w.Action) > 0 && !bytes.Equal(bytes.TrimSpace(w.Action), []byte("null")) {
		a, err := decodeAction(w.Action)
		if err != nil {
			return Request{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		req.Action = a
	}
	return req, nil
}

// ParseSnapshot decodes a bare snapshot document, as stored by the tooling.
// It is held to the same rules as an envelope's GameState.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, fmt.Errorf("%w: snapshot is null", ErrMalformedInput)
	}
	if err := check(snapshotSchema, data); err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return &s, nil
}

func check(schema *jsonschema.Schema, data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return nil
}
