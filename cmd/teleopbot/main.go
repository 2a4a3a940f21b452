package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config string `short:"c" long:"config" default:"teleopbot.json" description:"Rig configuration file"`

	Setup       SetupCommand       `command:"setup" description:"Find the servo bus, pick gamepads and calibrate the servos"`
	Teleoperate TeleoperateCommand `command:"teleoperate" alias:"teleop" description:"Drive the robot with two gamepads"`
	Profile     ProfileCommand     `command:"profile" description:"Write the default bindings profile"`
	Info        InfoCommand        `command:"info" description:"Show configuration and live sensor readings"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "teleopbot - gamepad teleoperation for a mecanum robot with an arm"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
