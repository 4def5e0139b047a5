// Package main is the entry point for the pactl CLI client.
package main

import (
	"github.com/donaldgifford/product-aggregator/cmd/pactl/cmd"
)

func main() {
	cmd.Execute()
}
