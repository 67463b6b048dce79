// main is the entry point of the osshealth CLI.
package main

import (
	"github.com/huangsam/osshealth/cmd"
	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/internal/iocache"
)

func main() {
	defer iocache.CloseCaching()

	if err := cmd.Execute(); err != nil {
		iocache.CloseCaching()
		contract.LogFatal("osshealth failed", err)
	}
}
