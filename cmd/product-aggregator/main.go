// Package main is the entry point for the product-aggregator.
package main

import (
	"os"

	"github.com/donaldgifford/product-aggregator/cmd/product-aggregator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
