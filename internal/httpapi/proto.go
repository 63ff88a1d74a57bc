package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxRequestBody caps the request body size for both protobuf and JSON
// payloads. Camera rule payloads are well under 1 KiB.
const maxRequestBody = 64 << 10

// isProtobuf returns true if the request's Content-Type indicates a
// protobuf payload. Bodies are google.protobuf.Struct messages carrying the
// same fields as the JSON form.
func isProtobuf(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "application/x-protobuf" ||
		ct == "application/protobuf" ||
		ct == "application/octet-stream"
}

// decodeBody fills v from a JSON or protobuf Struct body. An empty body
// leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}

	if isProtobuf(r) {
		var msg structpb.Struct
		if err := proto.Unmarshal(body, &msg); err != nil {
			return err
		}
		if body, err = protojson.Marshal(&msg); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			return errors.New("malformed JSON body")
		}
		return err
	}
	return nil
}

// structFrom converts a JSON-tagged value into a protobuf Struct.
func structFrom(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var msg structpb.Struct
	if err := protojson.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// writeProto marshals msg and writes it with the given HTTP status.
func writeProto(w http.ResponseWriter, status int, msg proto.Message) {
	data, err := proto.Marshal(msg)
	if err != nil {
		// Fall back to a plain-text error if marshalling fails.
		http.Error(w, "proto marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
