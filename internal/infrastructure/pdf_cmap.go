package infrastructure

import (
	"strings"
	"unicode/utf16"
)

// maxCMapRange bounds the expansion of a single bfrange entry
const maxCMapRange = 1 << 16

// toUnicodeMap maps character codes of a font to text, as read from the
// font's ToUnicode CMap
type toUnicodeMap struct {
	codeLen int
	chars   map[uint32]string
}

type cmapOperand struct {
	hex   []byte
	array [][]byte
}

// parseToUnicode reads the codespacerange, bfchar and bfrange sections of a
// ToUnicode CMap. defaultCodeLen applies when the CMap declares no codespace.
func parseToUnicode(data []byte, defaultCodeLen int) *toUnicodeMap {
	m := &toUnicodeMap{codeLen: defaultCodeLen, chars: make(map[uint32]string)}

	var pending []cmapOperand
	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case isPDFWhitespace(c):
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '<' && i+1 < len(data) && data[i+1] == '<',
			c == '>' && i+1 < len(data) && data[i+1] == '>':
			i += 2
		case c == '<':
			s, next := readHexString(data, i)
			pending = append(pending, cmapOperand{hex: s})
			i = next
		case c == '[':
			var arr [][]byte
			i++
			for i < len(data) && data[i] != ']' {
				if data[i] == '<' {
					s, next := readHexString(data, i)
					arr = append(arr, s)
					i = next
					continue
				}
				i++
			}
			pending = append(pending, cmapOperand{array: arr})
			i++
		case c == '(':
			_, next := readLiteralString(data, i)
			i = next
		case c == '/':
			i++
			for i < len(data) && !isPDFWhitespace(data[i]) && !isPDFDelimiter(data[i]) {
				i++
			}
		default:
			start := i
			for i < len(data) && !isPDFWhitespace(data[i]) && !isPDFDelimiter(data[i]) {
				i++
			}
			if i == start {
				i++
				continue
			}

			switch string(data[start:i]) {
			case "begincodespacerange", "beginbfchar", "beginbfrange":
				pending = pending[:0]
			case "endcodespacerange":
				if len(pending) > 0 && len(pending[0].hex) > 0 {
					m.codeLen = len(pending[0].hex)
				}
				pending = pending[:0]
			case "endbfchar":
				for k := 0; k+1 < len(pending); k += 2 {
					m.chars[codeValue(pending[k].hex)] = utf16Text(pending[k+1].hex)
				}
				pending = pending[:0]
			case "endbfrange":
				for k := 0; k+2 < len(pending); k += 3 {
					m.addRange(pending[k].hex, pending[k+1].hex, pending[k+2])
				}
				pending = pending[:0]
			}
		}
	}

	if m.codeLen <= 0 {
		m.codeLen = 1
	}
	return m
}

func (m *toUnicodeMap) addRange(lo, hi []byte, dst cmapOperand) {
	first, last := codeValue(lo), codeValue(hi)
	if last < first || last-first >= maxCMapRange {
		return
	}

	for code := first; code <= last; code++ {
		offset := code - first
		if dst.array != nil {
			if int(offset) >= len(dst.array) {
				return
			}
			m.chars[code] = utf16Text(dst.array[offset])
			continue
		}
		m.chars[code] = utf16Text(incrementLast(dst.hex, offset))
	}
}

// decode maps every code of s. Unmapped codes are dropped.
func (m *toUnicodeMap) decode(s []byte) string {
	var out strings.Builder
	for k := 0; k+m.codeLen <= len(s); k += m.codeLen {
		if text, ok := m.chars[codeValue(s[k:k+m.codeLen])]; ok {
			out.WriteString(text)
		}
	}
	return out.String()
}

func codeValue(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

// incrementLast adds offset to the final UTF-16 unit of dst
func incrementLast(dst []byte, offset uint32) []byte {
	out := append([]byte(nil), dst...)
	if len(out) < 2 {
		if len(out) == 1 {
			out[0] += byte(offset)
		}
		return out
	}
	n := len(out)
	unit := uint32(out[n-2])<<8 | uint32(out[n-1])
	unit += offset
	out[n-2], out[n-1] = byte(unit>>8), byte(unit)
	return out
}

func utf16Text(b []byte) string {
	if len(b) == 1 {
		return string(rune(b[0]))
	}
	units := make([]uint16, 0, len(b)/2)
	for k := 0; k+1 < len(b); k += 2 {
		units = append(units, uint16(b[k])<<8|uint16(b[k+1]))
	}
	return string(utf16.Decode(units))
}
