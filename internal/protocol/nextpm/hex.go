package nextpm

import (
	"strings"
	"unicode"
)

// NormalizeHex 将任意文本形式的十六进制串转换为字节序列（宽松模式）。
// 接受 "81 17 00 F0"、"0x81,0x17,..."、"811700F0" 等写法：
// 先去掉所有 0x/0X，再丢弃所有非十六进制字符，剩余数字两两成字节。
func NormalizeHex(text string) ([]byte, error) {
	text = stripHexPrefixes(text)

	digits := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		if _, ok := hexNibble(text[i]); ok {
			digits = append(digits, text[i])
		}
	}
	return packDigits(digits)
}

// NormalizeHexStrict 严格模式：只允许十六进制数字、0x 前缀与分隔符（空白 , ; : -），
// 其余字符直接报错，避免 "81g17" 这类输入被静默改写成 "8117"。
func NormalizeHexStrict(text string) ([]byte, error) {
	digits := make([]byte, 0, len(text))
	for pos, r := range text {
		switch {
		case r < unicode.MaxASCII && isHexDigit(byte(r)):
			digits = append(digits, byte(r))
		case r == 'x' || r == 'X':
			// 只接受紧跟在独立 "0" 后面的 x
			n := len(digits)
			if pos == 0 || text[pos-1] != '0' || !prefixBoundary(text, pos-1) {
				return nil, &DecodeError{Kind: KindInvalidCharacter, Char: r, Pos: pos}
			}
			digits = digits[:n-1]
		case unicode.IsSpace(r), r == ',', r == ';', r == ':', r == '-':
		default:
			return nil, &DecodeError{Kind: KindInvalidCharacter, Char: r, Pos: pos}
		}
	}
	return packDigits(digits)
}

// FormatHex 以大写、空格分隔的形式渲染字节，如 "81 16 00 69"
func FormatHex(b []byte) string {
	const digits = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(b) * 3)
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(digits[v>>4])
		sb.WriteByte(digits[v&0x0F])
	}
	return sb.String()
}

func stripHexPrefixes(text string) string {
	if !strings.ContainsAny(text, "xX") {
		return text
	}
	var sb strings.Builder
	sb.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] == '0' && i+1 < len(text) && (text[i+1] == 'x' || text[i+1] == 'X') {
			i++
			continue
		}
		sb.WriteByte(text[i])
	}
	return sb.String()
}

// prefixBoundary 判断 pos 处的 '0' 是否是一个 token 的开头
func prefixBoundary(text string, pos int) bool {
	if pos <= 0 {
		return true
	}
	_, ok := hexNibble(text[pos-1])
	return !ok && text[pos-1] != 'x' && text[pos-1] != 'X'
}

func packDigits(digits []byte) ([]byte, error) {
	if len(digits)%2 != 0 {
		return nil, &DecodeError{Kind: KindOddLength, Got: len(digits)}
	}
	out := make([]byte, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		hi, _ := hexNibble(digits[i])
		lo, _ := hexNibble(digits[i+1])
		out[i/2] = hi<<4 | lo
	}
	return out, nil
}

func isHexDigit(c byte) bool {
	_, ok := hexNibble(c)
	return ok
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
