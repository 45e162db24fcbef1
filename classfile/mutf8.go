package classfile

import "unicode/utf8"

// decodeModifiedUtf8 decodes the class-file flavour of UTF-8: NUL is
// encoded as 0xC0 0x80 and supplementary characters as surrogate pairs of
// three bytes each. Invalid bytes become U+FFFD.
func decodeModifiedUtf8(b []byte) string {
	runes := make([]rune, 0, len(b))
	i := 0
	for i < len(b) {
		c := b[i]
		switch {
		case c&0x80 == 0:
			runes = append(runes, rune(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) {
				runes = append(runes, utf8.RuneError)
				i = len(b)
				continue
			}
			runes = append(runes, rune(c&0x1F)<<6|rune(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) {
				runes = append(runes, utf8.RuneError)
				i = len(b)
				continue
			}
			r := decode3(b[i:])
			if r >= 0xD800 && r <= 0xDBFF && i+5 < len(b) && b[i+3]&0xF0 == 0xE0 {
				low := decode3(b[i+3:])
				if low >= 0xDC00 && low <= 0xDFFF {
					runes = append(runes, 0x10000+((r-0xD800)<<10)+(low-0xDC00))
					i += 6
					continue
				}
			}
			runes = append(runes, r)
			i += 3
		default:
			runes = append(runes, utf8.RuneError)
			i++
		}
	}
	return string(runes)
}

func decode3(b []byte) rune {
	return rune(b[0]&0x0F)<<12 | rune(b[1]&0x3F)<<6 | rune(b[2]&0x3F)
}
