package main

import (
	"github.com/andrescamacho/stockcore-go/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
