package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/vultr/govultr"
)

func dispatchVultr(args []string) {
	command := flag.NewFlagSet("vultr", flag.ExitOnError)
	label := command.String("label", "rateless-testbed", "label identifying testbed instances")
	launch := command.Int("launch", 0, "number of instances to launch")
	regionID := command.Int("region", 1, "region id to launch in")
	planID := command.Int("plan", 201, "plan id to launch")
	osID := command.Int("os", 387, "os id to launch")
	sshKeyID := command.String("sshkey", "", "ssh key id to install on the launched instances")
	keyPath := command.String("keypath", "", "local path of the ssh key, recorded in the server list")
	destroy := command.Bool("destroy", false, "destroy all testbed instances")
	list := command.String("list", "", "write the server list to the given file")
	command.Parse(args)

	apiKey := os.Getenv("VULTR_API_KEY")
	if apiKey == "" {
		fmt.Println("missing VULTR_API_KEY")
		os.Exit(1)
	}
	client := govultr.NewClient(nil, apiKey)
	ctx := context.Background()

	if *launch > 0 {
		opts := &govultr.ServerOptions{Label: *label}
		if *sshKeyID != "" {
			opts.SSHKeyIDs = strings.Split(*sshKeyID, ",")
		}
		for i := 0; i < *launch; i++ {
			s, err := client.Server.Create(ctx, *regionID, *planID, *osID, opts)
			if err != nil {
				fmt.Println("error creating instance:", err)
				os.Exit(1)
			}
			fmt.Println("created instance", s.InstanceID)
		}
	}

	if *destroy {
		n := 0
		for _, s := range testbedServers(ctx, client, *label) {
			if err := client.Server.Delete(ctx, s.InstanceID); err != nil {
				fmt.Println("error destroying instance", s.InstanceID, ":", err)
				os.Exit(1)
			}
			n += 1
		}
		fmt.Println("destroyed", n, "instances")
	}

	if *list != "" {
		servers := []Server{}
		for _, s := range testbedServers(ctx, client, *label) {
			servers = append(servers, Server{
				Provider: "vultr",
				ID:       s.InstanceID,
				Location: s.Location,
				User:     "root",
				PublicIP: s.MainIP,
				Port:     22,
				KeyPath:  *keyPath,
			})
		}
		WriteServerInfo(*list, servers)
		fmt.Println("wrote", len(servers), "servers to", *list)
	}
}

func testbedServers(ctx context.Context, client *govultr.Client, label string) []govultr.Server {
	all, err := client.Server.List(ctx)
	if err != nil {
		fmt.Println("error listing instances:", err)
		os.Exit(1)
	}
	res := []govultr.Server{}
	for _, s := range all {
		if s.Label == label {
			res = append(res, s)
		}
	}
	return res
}
