package main

import (
	"log"
	"os"

	cli "github.com/phillip/chama-tracker-go/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}
}
