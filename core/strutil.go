package core

// utoa converts an unsigned integer to a string without using fmt package
func utoa(n uint32) string {
	return FormatUint(uint64(n))
}

// FormatUint converts n to decimal without the fmt package, for firmware
// that builds log lines by concatenation.
func FormatUint(n uint64) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
