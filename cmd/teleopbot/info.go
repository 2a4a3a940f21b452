package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/edaniels/golog"

	"github.com/gwillem/teleopbot/pkg/robot"
)

type InfoCommand struct {
	Config bool `long:"config-only" description:"Only print the configuration, do not open the hardware"`
}

func (c *InfoCommand) Execute(args []string) error {
	cfg, err := robot.ReadConfig(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\nRun 'teleopbot setup' first.\n", err)
		os.Exit(1)
	}

	fmt.Println(headerStyle.Render("teleopbot info"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━"))
	fmt.Println()

	fmt.Println(subHeaderStyle.Render("Motors") + dimStyle.Render(fmt.Sprintf("  PCA9685 %#x on %q", cfg.Motors.Address, cfg.Motors.Bus)))
	var motorRows [][]string
	for _, name := range robot.AllMotors() {
		ch, ok := cfg.Motors.Channels[name]
		if !ok {
			motorRows = append(motorRows, []string{string(name), "-", "-"})
			continue
		}
		motorRows = append(motorRows, []string{string(name), fmt.Sprintf("%d", ch.Channel), fmt.Sprintf("%v", ch.Reversed)})
	}
	fmt.Println(renderTable([]string{"Motor", "Channel", "Reversed"}, motorRows))
	fmt.Println()

	fmt.Println(subHeaderStyle.Render("Inputs"))
	fmt.Printf("  Servo bus:     %s\n", cfg.Servos.Port)
	fmt.Printf("  Spindle:       %s/%s\n", cfg.Spindle.PinA, cfg.Spindle.PinB)
	fmt.Printf("  Arm bottom:    %s\n", cfg.ArmBottom.Pin)
	fmt.Printf("  Gamepad 1:     %s\n", cfg.Gamepads[0])
	fmt.Printf("  Gamepad 2:     %s\n", cfg.Gamepads[1])
	fmt.Println()

	if c.Config {
		return nil
	}

	rig, err := robot.Open(cfg, golog.NewDevelopmentLogger("info"))
	if err != nil {
		return err
	}
	defer rig.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	positions, err := rig.ServoPositions(ctx)
	if err != nil {
		return err
	}

	fmt.Println(subHeaderStyle.Render("Readings"))
	var rows [][]string
	for _, name := range robot.AllServos() {
		cal := cfg.Servos.Calibration[name]
		pos, ok := positions[name]
		reading := "-"
		if ok {
			reading = fmt.Sprintf("%.3f (%d)", pos, cal.Raw(pos))
		}
		rows = append(rows, []string{string(name), fmt.Sprintf("%d", cal.ID), reading})
	}
	rows = append(rows,
		[]string{"spindle encoder", "", fmt.Sprintf("%d ticks", rig.SpindlePosition())},
		[]string{"arm bottom", "", fmt.Sprintf("pressed=%v", rig.ArmBottomPressed())},
	)
	fmt.Println(renderTable([]string{"Device", "ID", "Reading"}, rows))

	return nil
}

func renderTable(headers []string, rows [][]string) string {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headStyle := cellStyle.Bold(true).Foreground(lipgloss.Color("12"))
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle
			}
			return cellStyle
		}).
		Render()
}
