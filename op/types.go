package op

import (
	"errors"
)

type OpType uint8

const (
	OpTypeUnknown         OpType = 0
	OpTypeCreateInstance  OpType = 1
	OpTypeSubmitReport    OpType = 2
	OpTypeSubmitChallenge OpType = 3
	OpTypeFinalize        OpType = 4
	OpTypeEscalate        OpType = 5
	OpTypeResolveDispute  OpType = 6
	OpTypeArchive         OpType = 7
)

const (
	OpVersion0 uint8 = 0
	OpVersion1 uint8 = 1
)

var (
	ErrInvalidOp         = errors.New("invalid op")
	ErrUnsupportedOpType = errors.New("unsupported op type")
	ErrInvalidSignature  = errors.New("op signature invalid")
)
