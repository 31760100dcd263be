/*
Copyright © 2026 The marksync authors
*/
package main

import "github.com/example/marksync/cmd"

func main() {
	cmd.Execute()
}
