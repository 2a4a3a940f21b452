package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gwillem/teleopbot/pkg/teleop"
)

type ProfileCommand struct {
	Output string `short:"o" long:"output" default:"-" description:"Output file, - for stdout"`
}

func (c *ProfileCommand) Execute(args []string) error {
	data, err := teleop.DefaultProfile().Marshal()
	if err != nil {
		return err
	}

	header := "# actions: " + strings.Join(teleop.ActionNames(), ", ") + "\n"
	data = append([]byte(header), data...)

	if c.Output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(c.Output, data, 0644); err != nil {
		return err
	}
	fmt.Printf("Profile written to %s\n", c.Output)
	return nil
}
