package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

type RemoteError struct {
	inner   error
	problem string
}

func (e RemoteError) Error() string {
	if e.inner != nil {
		return e.problem + ": " + e.inner.Error()
	}
	return e.problem
}

func dispatchExp(args []string) {
	rand.Seed(time.Now().UnixNano())
	command := flag.NewFlagSet("exp", flag.ExitOnError)
	serverListFilePath := command.String("l", "servers.json", "path to the server list file")
	install := command.String("install", "", "install the given binary")
	runExp := command.String("run", "", "run the experiment with the given setup file")
	downloadResults := command.String("dl", "", "download the results and store it with the given prefix")
	measure := command.String("ping", "", "ping the nodes to get the latency using the given setup file")

	command.Parse(args[0:])

	if *serverListFilePath == "" {
		fmt.Println("missing server list")
		os.Exit(1)
	}

	servers := ReadServerInfo(*serverListFilePath)

	clients := make([]*ssh.Client, len(servers))
	connWg := &sync.WaitGroup{} // wait for the ssh connections
	connWg.Add(len(servers))
	for i, s := range servers {
		go func(i int, s Server) {
			defer connWg.Done()
			client, err := connectSSH(s.User, s.PublicIP, s.Port, s.KeyPath)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			fmt.Printf("Connected to %v\n", s.Location)
			clients[i] = client
		}(i, s)
	}
	connWg.Wait()

	if *install != "" {
		fn := func(i int, s Server, c *ssh.Client) error {
			if err := killNode(c); err != nil {
				return err
			}
			return uploadFile(s, *install, "rateless-node")
		}
		runAll(servers, clients, fn)
	}

	if *measure != "" {
		exp := ReadExperimentInfo(*measure)
		fn := func(i int, s Server, c *ssh.Client) error {
			for _, pair := range exp.Topology {
				if pair.From == i {
					cmd := fmt.Sprintf("ping -c 30 %s | tail -n1 | cut -f5 -d'/'", servers[pair.To].PublicIP)
					sess, err := c.NewSession()
					if err != nil {
						return err
					}
					defer sess.Close()
					out, err := sess.Output(cmd)
					if err != nil {
						return err
					}
					meanDelay, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
					if err != nil {
						return err
					}
					fmt.Printf("%d <--> %d one-way delay %.1fms\n", pair.From, pair.To, meanDelay/2.0)
				}
			}
			return nil
		}
		runAll(servers, clients, fn)
	}

	if *runExp != "" {
		// port scanners send garbage data and confuse gob; randomize the port to mitigate
		port := int(rand.Float64()*40000.0) + 10000
		exp := ReadExperimentInfo(*runExp)
		fn := func(i int, s Server, c *ssh.Client) error {
			// figure out my outgoing peers
			peerAddrs := []string{}
			for _, pair := range exp.Topology {
				if pair.From == i {
					peerAddrs = append(peerAddrs, fmt.Sprintf("%s:%d", servers[pair.To].PublicIP, port))
				}
			}
			if err := killNode(c); err != nil {
				return err
			}
			sess, err := c.NewSession()
			if err != nil {
				return err
			}
			defer sess.Close()
			cmd := "bash -c 'ufw disable ; nohup ./rateless-node"
			if len(peerAddrs) > 0 {
				cmd += fmt.Sprintf(" -p %s", strings.Join(peerAddrs, ","))
			}
			extraArgs := append(exp.NodeArgs, command.Args()...)
			cmd += fmt.Sprintf(" -l 0.0.0.0:%d %s > log.txt 2>&1 &'", port, strings.Join(extraArgs, " "))
			fmt.Println(s.Location, "started running")
			return sess.Run(cmd)
		}
		runAll(servers, clients, fn)
	}

	if *downloadResults != "" {
		fn := func(i int, s Server, c *ssh.Client) error {
			if err := killNode(c); err != nil {
				return err
			}
			return copyBackFile(s, "log.txt", fmt.Sprintf("%s-%d", *downloadResults, i))
		}
		runAll(servers, clients, fn)
	}
}

func runAll(servers []Server, clients []*ssh.Client, fn func(int, Server, *ssh.Client) error) {
	if len(servers) != len(clients) {
		panic("incorrect")
	}
	wg := &sync.WaitGroup{}
	wg.Add(len(clients))
	for i := range clients {
		go func(i int, s Server, c *ssh.Client) {
			defer wg.Done()
			err := fn(i, s, c)
			if err != nil {
				switch err := err.(type) {
				case *exec.ExitError:
					fmt.Printf("error executing local command for server %v: %s\n", i, err.Stderr)
				case *ssh.ExitError:
					fmt.Printf("error executing command on server %v: %s\n", i, err.Msg())
				default:
					fmt.Printf("error executing on server %v: %v\n", i, err)
				}
			}
		}(i, servers[i], clients[i])
	}
	wg.Wait()
}

// TODO: use go-native ssh for the file transfers as well
func copyBackFile(s Server, from, dest string) error {
	fromStr := fmt.Sprintf("%s@%s:%s", s.User, s.PublicIP, from)
	cmdArgs := []string{"-o", "StrictHostKeyChecking=no", "-o", "UserKnownHostsFile=/dev/null", "-i", s.KeyPath, fromStr, dest}
	return exec.Command("scp", cmdArgs...).Run()
}

func uploadFile(s Server, from, dest string) error {
	toStr := fmt.Sprintf("%s@%s:%s", s.User, s.PublicIP, dest)
	cmdArgs := []string{"-o", "StrictHostKeyChecking=no", "-o", "UserKnownHostsFile=/dev/null", "-i", s.KeyPath, from, toStr}
	return exec.Command("scp", cmdArgs...).Run()
}

func killNode(c *ssh.Client) error {
	pkill, err := c.NewSession()
	if err != nil {
		return RemoteError{err, "error creating session"}
	}
	pkill.Run(`killall -w rateless-node`)
	pkill.Close()
	return nil
}
