// Package main is the entry point for the askdoc knowledge base service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/askdoc-io/askdoc/internal/askdoc"
)

func main() {
	askdoc.NewApp().Run()
}
