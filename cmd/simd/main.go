package main

import "github.com/codyborn/agent-rts/cmd/simd/cmd"

func main() {
	cmd.Execute()
}
