// Command gen-deploy-schema regenerates the JSON schema for the deploy
// daemon's config file from its Go struct definition. Run via
// `go generate` from internal/deployconfig.
package main

import (
	"log"
	"os"

	"github.com/gitrelay/gitrelay/internal/deployconfig"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s path/to/schema.json", os.Args[0])
	}
	bs, err := deployconfig.ReflectSchema()
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile(os.Args[1], bs, 0o644); err != nil {
		panic(err)
	}
}
