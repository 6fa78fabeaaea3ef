package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound streams.
const AccessTokenHeaderName = "access_token"

// AccessTokenQueryParam lets browser WebSocket clients, which cannot set
// headers, pass the token in the URL.
const AccessTokenQueryParam = "token"

// DateLayout is the wire format of calendar dates (shift dates, query filters).
const DateLayout = "2006-01-02"
