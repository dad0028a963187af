package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestDecodeOutputKeepsUTF8(t *testing.T) {
	assert.Equal(t, "driver: ice\nversion: 1.0\n", DecodeOutput([]byte("driver: ice\r\nversion: 1.0\r\n")))
	assert.Equal(t, "", DecodeOutput(nil))
}

func TestDecodeOutputGB18030(t *testing.T) {
	raw, err := simplifiedchinese.GB18030.NewEncoder().Bytes([]byte("没有那个设备"))
	assert.NoError(t, err)
	assert.Equal(t, "没有那个设备", EnsureUTF8Bytes(raw))
}

func TestNormalizeNewlines(t *testing.T) {
	assert.Equal(t, "a\nb\nc", NormalizeNewlines("a\r\nb\rc"))
	assert.Equal(t, "plain", NormalizeNewlines("plain"))
}
