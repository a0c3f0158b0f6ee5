package main

import (
	"os"

	ragembedcmder "github.com/papercomputeco/ragembed/cmd/ragembed"
)

func main() {
	cmd := ragembedcmder.NewRagembedCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
