// Package presencerpc is the wire contract of the clinic.presence.Presence
// gRPC service shared by the server and the desk client. Messages are
// models.PresenceMessage values encoded as JSON.
package presencerpc

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	ServiceName    = "clinic.presence.Presence"
	WatchMethod    = "/" + ServiceName + "/Watch"
	SnapshotMethod = "/" + ServiceName + "/Snapshot"
)

// CodecName is the content-subtype clients select with
// grpc.CallContentSubtype.
const CodecName = "json"

// WatchStreamDesc describes the bidirectional Watch stream.
var WatchStreamDesc = grpc.StreamDesc{
	StreamName:    "Watch",
	ServerStreams: true,
	ClientStreams: true,
}

// Codec carries plain Go structs as JSON instead of protobuf.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (Codec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(Codec{})
}
