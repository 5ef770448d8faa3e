package main

import (
	"github.com/asimaster/pricerank/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
