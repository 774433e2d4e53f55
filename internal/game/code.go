// internal/game/code.go
package game

import "math/rand"

// CodeAlphabet leaves out I, L, O, 0 and 1 so codes can be read aloud.
const CodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// CodeLength is the number of characters in a room code.
const CodeLength = 5

// RandomCode samples a room code. Uniqueness is the registry's job.
func RandomCode() string {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = CodeAlphabet[rand.Intn(len(CodeAlphabet))]
	}
	return string(b)
}
