package main

import "github.com/theirongolddev/canasta/cmd"

func main() {
	cmd.Execute()
}
