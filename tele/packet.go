package tele

import (
	"math"

	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Packet is one telemetry frame, encoded as BSON document:
// {d: magic, seq, topic, txid: 0, payload: {<SchemaName>: {...}}}
type Packet struct {
	D       uint32  `bson:"d"`
	Seq     uint32  `bson:"seq"`
	Topic   uint32  `bson:"topic"`
	TxID    uint32  `bson:"txid"`
	Payload Payload `bson:"payload"`
}

// Payload must have exactly one schema set.
type Payload struct {
	AHRS *AHRS `bson:"AHRS,omitempty"`
	HSI  *HSI  `bson:"HSI,omitempty"`
}

func NewPacket(topic Topic, seq uint32, payload Payload) *Packet {
	return &Packet{
		D:       Magic,
		Seq:     seq,
		Topic:   uint32(topic),
		Payload: payload,
	}
}

// Schema returns payload schema name or "" if payload is invalid.
func (p *Packet) Schema() string {
	switch {
	case p.Payload.AHRS != nil && p.Payload.HSI == nil:
		return SchemaAHRS
	case p.Payload.HSI != nil && p.Payload.AHRS == nil:
		return SchemaHSI
	}
	return ""
}

func Marshal(p *Packet) ([]byte, error) {
	if p.Schema() == "" {
		return nil, ErrPayload
	}
	b, err := bson.Marshal(p)
	if err != nil {
		return nil, errors.Annotatef(err, "marshal topic=%s seq=%d", Topic(p.Topic), p.Seq)
	}
	if len(b) >= math.MaxUint16 {
		return nil, ErrFrameLenOverflow
	}
	return b, nil
}

func Unmarshal(b []byte) (*Packet, error) {
	p := new(Packet)
	if err := bson.Unmarshal(b, p); err != nil {
		return nil, errors.Annotate(err, "unmarshal")
	}
	if p.D != Magic {
		return nil, ErrFrameInvalid
	}
	if p.Schema() == "" {
		return nil, ErrPayload
	}
	return p, nil
}
