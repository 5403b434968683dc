package types

import (
	"strconv"
	"strings"
)

// compare first with second. They are equal if:
//  1. first and second point to the same address (nil or otherwise)
//  2. first and second contain the same value
//  3. if nilVal != nil
//     3.1 first is not nil and *nilVal equals to *first
//     3.2 second is not nil and *nilVal equals to *second
func compare[C comparable](first *C, second *C, nilVal *C) bool {
	if first == second {
		return true
	}

	if first != nil && second != nil {
		return *first == *second
	}

	if nilVal != nil {
		if first != nil && *first == *nilVal {
			return true
		}
		if second != nil && *second == *nilVal {
			return true
		}
	}
	return false
}

// hex formats v as a 0x prefixed hex string
func hex[U uint8 | uint16 | uint32](v U) string {
	return "0x" + strconv.FormatUint(uint64(v), 16)
}

// dec formats v as a decimal string
func dec[U uint8 | uint16 | uint32](v U) string {
	return strconv.FormatUint(uint64(v), 10)
}

// joinSegments joins per item (or per action) args with the "/" separator testpmd uses
func joinSegments(segments [][]string) []string {
	args := []string{}
	for idx, seg := range segments {
		if idx > 0 {
			args = append(args, "/")
		}
		args = append(args, seg...)
	}
	return args
}

// summarize renders segments as a single human-readable string, e.g "eth / ipv4 / end"
func summarize(segments [][]string) string {
	return strings.Join(joinSegments(segments), " ")
}
