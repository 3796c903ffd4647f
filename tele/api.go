package tele

import (
	"fmt"
	"strconv"
)

// Magic is frame check constant, receivers drop documents without it.
const Magic uint32 = 0x5A4D5346

const (
	SchemaAHRS = "AHRS"
	SchemaHSI  = "HSI"

	SchemaVersion = 1
)

var (
	ErrFrameInvalid     = fmt.Errorf("frame is invalid")
	ErrFrameLenOverflow = fmt.Errorf("frame is too large")
	ErrPayload          = fmt.Errorf("packet must carry exactly one payload")
)

// Topic selects packet schema and destination address.
type Topic uint32

const (
	TopicAHRS Topic = 0x11
	TopicHSI  Topic = 0x12
)

// Hex is lowercase hex text without leading zeros, used in destination address.
func (t Topic) Hex() string { return strconv.FormatUint(uint64(t), 16) }

func (t Topic) String() string { return "0x" + t.Hex() }
