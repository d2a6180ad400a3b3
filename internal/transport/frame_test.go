package transport

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_RoundTrip(t *testing.T) {
	var buf bytes.Buffer

	in := frame{Type: frameReq, ID: 7, Body: []byte(`{"kind":"snapshot_request"}`)}
	require.NoError(t, writeFrame(&buf, in))

	out, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFrame_SequentialFrames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, frame{Type: framePing}))
	require.NoError(t, writeFrame(&buf, frame{Type: framePong}))

	f1, err := readFrame(&buf)
	require.NoError(t, err)
	f2, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, framePing, f1.Type)
	assert.Equal(t, framePong, f2.Type)
}

func TestReadFrame_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, frame{Type: frameMsg, Body: []byte("payload")}))

	short := buf.Bytes()[:buf.Len()-3]
	_, err := readFrame(bytes.NewReader(short))
	assert.Error(t, err)
}

func TestReadFrame_OversizedPrefixRejected(t *testing.T) {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], maxFrameSize+1)

	_, err := readFrame(bytes.NewReader(prefix[:]))
	assert.Error(t, err)
}

func TestReadFrame_NotJSON(t *testing.T) {
	var buf bytes.Buffer
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], 4)
	buf.Write(prefix[:])
	buf.WriteString("????")

	_, err := readFrame(&buf)
	assert.Error(t, err)
}
