package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
)

type Server struct {
	Provider string
	ID       string
	Location string
	User     string
	PublicIP string
	Port     int
	KeyPath  string
}

func ReadServerInfo(path string) []Server {
	f, err := os.ReadFile(path)
	if err != nil {
		fmt.Println("error reading server list:", err)
		os.Exit(1)
	}
	var servers []Server
	if err := json.Unmarshal(f, &servers); err != nil {
		fmt.Println("error parsing server list:", err)
		os.Exit(1)
	}
	return servers
}

func WriteServerInfo(path string, servers []Server) {
	data, err := json.MarshalIndent(servers, "", "  ")
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Println("error writing server list:", err)
		os.Exit(1)
	}
}

type TopologyPair struct {
	From int
	To   int
}

type Experiment struct {
	Topology []TopologyPair
	NodeArgs []string
}

func ReadExperimentInfo(path string) Experiment {
	f, err := os.ReadFile(path)
	if err != nil {
		fmt.Println("error reading experiment setup:", err)
		os.Exit(1)
	}
	var exp Experiment
	if err := json.Unmarshal(f, &exp); err != nil {
		fmt.Println("error parsing experiment setup:", err)
		os.Exit(1)
	}
	return exp
}

func connectSSH(user, ip string, port int, keyPath string) (*ssh.Client, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, RemoteError{err, "error reading ssh key"}
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, RemoteError{err, "error parsing ssh key"}
	}
	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}
	if port == 0 {
		port = 22
	}
	return ssh.Dial("tcp", fmt.Sprintf("%s:%d", ip, port), config)
}
