package main

import (
	"fmt"
	"os"

	cerr "github.com/cockroachdb/errors"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := cerr.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
