package utils

// Password complexity checks shared by register and profile update. The
// policy is deliberately ASCII-only: one letter and one digit.

// HasLetter reports whether s contains at least one ASCII letter.
func HasLetter(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			return true
		}
	}
	return false
}

// HasNumber reports whether s contains at least one ASCII digit.
func HasNumber(s string) bool {
	for i := 0; i < len(s); i++ {
		if '0' <= s[i] && s[i] <= '9' {
			return true
		}
	}
	return false
}
