package utils

import "testing"

func TestPasswordCharClasses(t *testing.T) {
	if !HasLetter("abc123") || !HasNumber("abc123") {
		t.Fatalf("mixed password must satisfy both classes")
	}
	if HasLetter("12345") {
		t.Fatalf("digits only must fail the letter check")
	}
	if HasNumber("secret") {
		t.Fatalf("letters only must fail the digit check")
	}
	if HasLetter("ñ½€") || HasNumber("ñ½€") {
		t.Fatalf("non-ASCII characters must not count toward either class")
	}
}
