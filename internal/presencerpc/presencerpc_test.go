package presencerpc

import (
	"testing"

	"github.com/hamarchia/ClinicSystem/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestCodec(t *testing.T) {
	c := Codec{}
	b, err := c.Marshal(&models.PresenceMessage{Type: models.PresenceTypeDoneSet, PatientIDs: models.DoneSet{"x"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"done_set","patientIds":["x"]}`, string(b))

	var back models.PresenceMessage
	require.NoError(t, c.Unmarshal(b, &back))
	assert.Equal(t, models.DoneSet{"x"}, back.PatientIDs)
}

func TestCodecRegistered(t *testing.T) {
	assert.NotNil(t, encoding.GetCodec(CodecName))
}

func TestMethodNames(t *testing.T) {
	assert.Equal(t, "/clinic.presence.Presence/Watch", WatchMethod)
	assert.Equal(t, "/clinic.presence.Presence/Snapshot", SnapshotMethod)
}
