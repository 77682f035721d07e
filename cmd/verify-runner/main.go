// Command verify-runner runs browser verification flows.
package main

import "github.com/devicelab-dev/verify-runner/pkg/cli"

func main() {
	cli.Execute()
}
