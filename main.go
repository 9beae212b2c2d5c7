// Command storage-ops operates the storage contracts and serves a digest
// history.
package main

import "github.com/0glabs/storage-ops/cmd"

func main() {
	cmd.Execute()
}
