package main

import (
	"os"
)

func main() {
	if err := newRootCmd(dialGRPC).Execute(); err != nil {
		os.Exit(1)
	}
}
