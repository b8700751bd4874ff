// Command vitalcore records daily vitals and runs structured health experiments.
package main

import "vitalcore/internal/cli"

func main() {
	cli.Execute()
}
