package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"agriweather/backend/libs/auth"
)

// Prints a bcrypt hash for an operator password read from stdin, for use
// under auth.operators in the insights config.
func main() {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(os.Stderr, "read password:", err)
		os.Exit(1)
	}
	hash, err := auth.NewBcryptHasher(0).Hash(strings.TrimRight(line, "\r\n"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
