package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrc8KnownVector(t *testing.T) {
	// the checksum example from the Sensirion datasheet
	assert.Equal(t, byte(0x92), CRC8([]byte{0xBE, 0xEF}))
}

func TestCrc8DetectsBitFlips(t *testing.T) {
	original := CRC8([]byte{0x80, 0x00})
	flipped := CRC8([]byte{0x80, 0x01})

	assert.NotEqual(t, original, flipped)
}

func TestCrc8EmptyInput(t *testing.T) {
	assert.Equal(t, byte(0xFF), CRC8(nil))
}
