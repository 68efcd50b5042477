package action

import "strings"

// ParseVK converts a key token (e.g. "F3", "D") into a Windows virtual-key
// code. Recognizes F1..F12, digits and single letters A..Z. Unknown tokens
// return VK_F3.
func ParseVK(key string) byte {
	k := strings.ToUpper(strings.TrimSpace(key))
	if len(k) >= 2 && k[0] == 'F' {
		switch k {
		case "F10":
			return 0x79
		case "F11":
			return 0x7A
		case "F12":
			return 0x7B
		default:
			n := int(k[1] - '0')
			if len(k) == 2 && n >= 1 && n <= 9 {
				return byte(0x70 + (n - 1)) // VK_F1=0x70
			}
		}
	}
	if len(k) == 1 {
		if k[0] >= 'A' && k[0] <= 'Z' {
			return k[0] // letters match VK codes
		}
		if k[0] >= '0' && k[0] <= '9' {
			return k[0]
		}
	}
	return 0x72 // VK_F3
}
