//go:build gendocs

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"
)

// main writes man pages (default) or markdown for the command tree.
func main() {
	outputDir := flag.String("o", "man/man1", "output directory")
	markdown := flag.Bool("markdown", false, "generate markdown instead of man pages")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	var err error
	if *markdown {
		err = doc.GenMarkdownTree(rootCmd, *outputDir)
	} else {
		err = doc.GenManTree(rootCmd, &doc.GenManHeader{
			Title:   "CRYPTUSERS",
			Section: "1",
			Source:  "cryptusers " + version,
		}, *outputDir)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate docs: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Docs generated in: %s\n", *outputDir)
}
