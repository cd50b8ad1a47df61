package main

import (
	"log"

	"github.com/mithrel/stripnbsp/internal/cli"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("stripnbsp: ")
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
