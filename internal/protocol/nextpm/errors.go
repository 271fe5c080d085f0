package nextpm

import (
	"errors"
	"fmt"
)

// ErrorKind 解码失败类型
type ErrorKind int

const (
	KindOddLength ErrorKind = iota + 1
	KindInvalidCharacter
	KindFrameTooShort
	KindInvalidStartByte
	KindUnknownCommand
	KindUnexpectedLength
	KindChecksumMismatch
)

var (
	ErrOddLength        = errors.New("hex string has odd length after normalization")
	ErrInvalidCharacter = errors.New("invalid character in hex string")
	ErrFrameTooShort    = errors.New("frame too short")
	ErrInvalidStartByte = errors.New("invalid start byte")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrUnexpectedLength = errors.New("unexpected frame length")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

var kindSentinels = map[ErrorKind]error{
	KindOddLength:        ErrOddLength,
	KindInvalidCharacter: ErrInvalidCharacter,
	KindFrameTooShort:    ErrFrameTooShort,
	KindInvalidStartByte: ErrInvalidStartByte,
	KindUnknownCommand:   ErrUnknownCommand,
	KindUnexpectedLength: ErrUnexpectedLength,
	KindChecksumMismatch: ErrChecksumMismatch,
}

var kindNames = map[ErrorKind]string{
	KindOddLength:        "odd_length",
	KindInvalidCharacter: "invalid_character",
	KindFrameTooShort:    "frame_too_short",
	KindInvalidStartByte: "invalid_start_byte",
	KindUnknownCommand:   "unknown_command",
	KindUnexpectedLength: "unexpected_length",
	KindChecksumMismatch: "checksum_mismatch",
}

// String 返回稳定的 snake_case 名称，用于 API 响应与指标标签
func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// DecodeError 携带期望值/实际值的解码错误。
// Got/Expected 的含义随 Kind 变化：长度类为字节数，字节类为字节值。
type DecodeError struct {
	Kind     ErrorKind
	Got      int
	Expected int
	Command  byte
	Char     rune
	Pos      int
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case KindOddLength:
		return fmt.Sprintf("%v (%d hex digits)", ErrOddLength, e.Got)
	case KindInvalidCharacter:
		return fmt.Sprintf("%v: %q at position %d", ErrInvalidCharacter, e.Char, e.Pos)
	case KindFrameTooShort:
		return fmt.Sprintf("%v: got %d bytes, need at least %d", ErrFrameTooShort, e.Got, e.Expected)
	case KindInvalidStartByte:
		return fmt.Sprintf("%v 0x%02x (expected 0x%02x)", ErrInvalidStartByte, e.Got, e.Expected)
	case KindUnknownCommand:
		return fmt.Sprintf("%v: 0x%02x", ErrUnknownCommand, e.Command)
	case KindUnexpectedLength:
		return fmt.Sprintf("%v: got %d, expected %d", ErrUnexpectedLength, e.Got, e.Expected)
	case KindChecksumMismatch:
		return fmt.Sprintf("%v (expected 0x%02x, got 0x%02x)", ErrChecksumMismatch, e.Expected, e.Got)
	default:
		return "decode error: " + e.Kind.String()
	}
}

// Unwrap 使 errors.Is(err, ErrChecksumMismatch) 等判断成立
func (e *DecodeError) Unwrap() error {
	return kindSentinels[e.Kind]
}

// AsDecodeError 从错误链中取出 *DecodeError
func AsDecodeError(err error) (*DecodeError, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
