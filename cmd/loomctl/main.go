// Command loomctl is the operator CLI for tenant addressing: validating
// subdomains and domains, issuing verification tokens, resolving hosts
// against a store, and verifying custom domains over DNS.
package main

import "github.com/dalemusser/loomos/cmd/loomctl/commands"

func main() {
	commands.Execute(Version)
}
