// Command prolog answers queries against Prolog rule sets.
//
//	prolog solve -r family.pl 'grandparent(X, Y)'
//	prolog check -r family.pl --facts users.yaml
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
