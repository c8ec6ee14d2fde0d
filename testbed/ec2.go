package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
)

func dispatchEC2(args []string) {
	command := flag.NewFlagSet("ec2", flag.ExitOnError)
	region := command.String("region", "us-west-2", "region to operate in")
	tag := command.String("tag", "rateless-testbed", "Name tag identifying testbed instances")
	launch := command.Int("launch", 0, "number of instances to launch")
	ami := command.String("ami", "", "AMI to launch")
	itype := command.String("type", "t3.small", "instance type to launch")
	keyName := command.String("key", "", "key pair name for the launched instances")
	keyPath := command.String("keypath", "", "local path of the ssh key, recorded in the server list")
	user := command.String("user", "ubuntu", "ssh user, recorded in the server list")
	terminate := command.Bool("terminate", false, "terminate all testbed instances")
	list := command.String("list", "", "write the server list to the given file")
	command.Parse(args)

	sess := session.Must(session.NewSession(&aws.Config{Region: aws.String(*region)}))
	svc := ec2.New(sess)

	if *launch > 0 {
		if *ami == "" || *keyName == "" {
			fmt.Println("missing -ami or -key")
			os.Exit(1)
		}
		_, err := svc.RunInstances(&ec2.RunInstancesInput{
			ImageId:      aws.String(*ami),
			InstanceType: aws.String(*itype),
			KeyName:      aws.String(*keyName),
			MinCount:     aws.Int64(int64(*launch)),
			MaxCount:     aws.Int64(int64(*launch)),
			TagSpecifications: []*ec2.TagSpecification{
				{
					ResourceType: aws.String("instance"),
					Tags: []*ec2.Tag{
						{Key: aws.String("Name"), Value: aws.String(*tag)},
					},
				},
			},
		})
		if err != nil {
			fmt.Println("error launching instances:", err)
			os.Exit(1)
		}
		fmt.Println("launched", *launch, "instances")
	}

	if *terminate {
		ids := testbedInstanceIds(svc, *tag)
		if len(ids) == 0 {
			fmt.Println("no instances to terminate")
			return
		}
		_, err := svc.TerminateInstances(&ec2.TerminateInstancesInput{InstanceIds: ids})
		if err != nil {
			fmt.Println("error terminating instances:", err)
			os.Exit(1)
		}
		fmt.Println("terminated", len(ids), "instances")
	}

	if *list != "" {
		servers := []Server{}
		for _, inst := range testbedInstances(svc, *tag) {
			if inst.PublicIpAddress == nil {
				continue
			}
			loc := *region
			if inst.Placement != nil && inst.Placement.AvailabilityZone != nil {
				loc = *inst.Placement.AvailabilityZone
			}
			servers = append(servers, Server{
				Provider: "ec2",
				ID:       aws.StringValue(inst.InstanceId),
				Location: loc,
				User:     *user,
				PublicIP: aws.StringValue(inst.PublicIpAddress),
				Port:     22,
				KeyPath:  *keyPath,
			})
		}
		WriteServerInfo(*list, servers)
		fmt.Println("wrote", len(servers), "servers to", *list)
	}
}

func testbedInstances(svc *ec2.EC2, tag string) []*ec2.Instance {
	res, err := svc.DescribeInstances(&ec2.DescribeInstancesInput{
		Filters: []*ec2.Filter{
			{Name: aws.String("tag:Name"), Values: []*string{aws.String(tag)}},
			{Name: aws.String("instance-state-name"), Values: []*string{aws.String("running"), aws.String("pending")}},
		},
	})
	if err != nil {
		fmt.Println("error listing instances:", err)
		os.Exit(1)
	}
	instances := []*ec2.Instance{}
	for _, r := range res.Reservations {
		instances = append(instances, r.Instances...)
	}
	return instances
}

func testbedInstanceIds(svc *ec2.EC2, tag string) []*string {
	ids := []*string{}
	for _, inst := range testbedInstances(svc, tag) {
		ids = append(ids, inst.InstanceId)
	}
	return ids
}
