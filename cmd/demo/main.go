package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/aidanjensen/goline"
)

func inputFinished(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasSuffix(text, ";")
}

func main() {
	fmt.Printf(`# command line demo
# - multi-line input terminated by a trailing semicolon
# - standard navigation and editing commands
# - history browsing and search
# - kill ring
# - reads bindings from ~/.inputrc and settings from ~/.config/goline/config.yaml
`)

	p := goline.New(goline.WithInputFinished(inputFinished))
	defer p.Close()

	for {
		_, err := p.ReadLine("demo> ")
		if err != nil {
			log.Fatal(err)
		}
	}
}
