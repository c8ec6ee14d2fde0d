// Command testbed provisions cloud machines, deploys the node binary, and
// runs distributed reconciliation experiments over them.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: testbed <exp|ec2|vultr> ...")
		os.Exit(1)
	}
	switch os.Args[1] {
	case "exp":
		dispatchExp(os.Args[2:])
	case "ec2":
		dispatchEC2(os.Args[2:])
	case "vultr":
		dispatchVultr(os.Args[2:])
	default:
		fmt.Println("unknown subcommand", os.Args[1])
		os.Exit(1)
	}
}
