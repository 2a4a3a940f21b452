package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/teleopbot/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("teleopbot setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━"))
	fmt.Println()

	config := robot.DefaultConfig()
	if existing, err := robot.ReadConfig(opts.Config); err == nil {
		config = existing
		fmt.Printf("Updating %s\n\n", opts.Config)
	}

	// Step 1: Find the servo bus
	config.Servos.Port = scanForServoBus()

	// Step 2: Pick the gamepads
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Gamepads ━━━"))
	fmt.Println()
	config.Gamepads = pickGamepads(config.Gamepads)

	if err := config.Write(opts.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	// Step 3: Calibrate the servos
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Calibrating Wrist and Claws ━━━"))
	fmt.Println()
	calibrateServos(&config.Servos)

	if err := config.Write(opts.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Start teleoperation with: " + headerStyle.Render("teleopbot teleoperate"))

	return nil
}

func scanForServoBus() string {
	fmt.Println("Scanning for the servo bus...")
	fmt.Println()

	ports := findServoBuses()

	switch len(ports) {
	case 0:
		fmt.Println("No servo bus found.")
		fmt.Printf("Make sure the %d servos (IDs 1-%d) are connected and powered on.\n",
			len(robot.AllServos()), len(robot.AllServos()))
		os.Exit(1)
	case 1:
		fmt.Println(successStyle.Render("Servo bus found on " + ports[0]))
		return ports[0]
	}

	var options []huh.Option[string]
	for _, port := range ports {
		options = append(options, huh.NewOption(port, port))
	}

	var port string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Several servo buses found").
				Description("Which one is the robot's?").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return port
}

func findServoBuses() []string {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var found []string
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		bus, servos, err := connectToServoBus(port)
		if err != nil {
			continue
		}
		bus.Close()

		fmt.Printf("  Found %d servos on %s\n", len(servos), port)
		found = append(found, port)
	}

	return found
}

// hasRobotServos reports whether every servo ID the robot uses answered.
func hasRobotServos(servos []feetech.FoundServo) bool {
	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}
	for i := 1; i <= len(robot.AllServos()); i++ {
		if !ids[i] {
			return false
		}
	}
	return true
}

func connectToServoBus(port string) (*feetech.Bus, []feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	servos, err := bus.Scan(ctx, 1, len(robot.AllServos()))
	if err != nil {
		bus.Close()
		return nil, nil, err
	}

	if !hasRobotServos(servos) {
		bus.Close()
		return nil, nil, fmt.Errorf("expected servos with IDs 1-%d", len(robot.AllServos()))
	}

	return bus, servos, nil
}

func pickGamepads(current [2]string) [2]string {
	devices, _ := filepath.Glob("/dev/input/js*")
	if len(devices) == 0 {
		fmt.Println("No joysticks found; keeping " + strings.Join(current[:], ", "))
		return current
	}

	var options []huh.Option[string]
	for _, dev := range devices {
		options = append(options, huh.NewOption(dev, dev))
	}
	options = append(options, huh.NewOption("none", ""))

	picked := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Gamepad 1 (driver)").
				Options(options...).
				Value(&picked[0]),
			huh.NewSelect[string]().
				Title("Gamepad 2 (arm operator)").
				Options(options...).
				Value(&picked[1]),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	fmt.Printf("Gamepad 1: %s\nGamepad 2: %s\n", picked[0], picked[1])
	return picked
}

func calibrateServos(busConfig *robot.ServoBusConfig) {
	fmt.Printf("Calibrating servos on %s\n", busConfig.Port)
	fmt.Println()

	bus, servos, err := connectToServoBus(busConfig.Port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to servo bus: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	servoMap := make(map[int]*feetech.Servo)
	for _, s := range servos {
		servoMap[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}

	// Disable all servos so they can be moved by hand
	ctx := context.Background()
	for _, servo := range servoMap {
		servo.Disable(ctx)
	}

	names := robot.AllServos()

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Move the wrist through its full pitch and roll range.")
	fmt.Println("Open and close each claw as far as it safely goes.")
	fmt.Println()

	curPositions := make(map[robot.ServoName]int)
	minPositions := make(map[robot.ServoName]int)
	maxPositions := make(map[robot.ServoName]int)
	for i, name := range names {
		pos, _ := servoMap[i+1].Position(ctx)
		curPositions[name] = pos
		minPositions[name] = pos
		maxPositions[name] = pos
	}

	model := newCalibrationModel(names, servoMap, curPositions, minPositions, maxPositions)
	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running calibration: %v\n", err)
		os.Exit(1)
	}

	cm := finalModel.(calibrationModel)
	calibration := make(robot.Calibration)
	for i, name := range names {
		calibration[name] = robot.ServoCalibration{
			ID:       i + 1,
			RangeMin: cm.minPositions[name],
			RangeMax: cm.maxPositions[name],
		}
	}

	busConfig.Calibration = calibration
	fmt.Println()
	fmt.Println("Servos calibrated.")
}

// Calibration TUI model
type calibrationModel struct {
	names        []robot.ServoName
	servoMap     map[int]*feetech.Servo
	curPositions map[robot.ServoName]int
	minPositions map[robot.ServoName]int
	maxPositions map[robot.ServoName]int
	quitting     bool
}

type tickMsg time.Time

func newCalibrationModel(
	names []robot.ServoName,
	servoMap map[int]*feetech.Servo,
	curPositions, minPositions, maxPositions map[robot.ServoName]int,
) calibrationModel {
	return calibrationModel{
		names:        names,
		servoMap:     servoMap,
		curPositions: curPositions,
		minPositions: minPositions,
		maxPositions: maxPositions,
	}
}

func pollTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Init() tea.Cmd {
	return pollTick()
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for i, name := range m.names {
			pos, err := m.servoMap[i+1].Position(ctx)
			if err != nil {
				continue
			}
			m.curPositions[name] = pos
			m.minPositions[name] = min(m.minPositions[name], pos)
			m.maxPositions[name] = max(m.maxPositions[name], pos)
		}
		return m, pollTick()
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableNameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(m.names))
	ranges := make([]int, 0, len(m.names))
	for _, name := range m.names {
		rangeSize := m.maxPositions[name] - m.minPositions[name]
		ranges = append(ranges, rangeSize)
		rows = append(rows, []string{
			string(name),
			fmt.Sprintf("%d", m.curPositions[name]),
			fmt.Sprintf("%d", m.minPositions[name]),
			fmt.Sprintf("%d", m.maxPositions[name]),
			fmt.Sprintf("%d", rangeSize),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Servo", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableNameStyle
			case 1:
				return tableCurrentStyle
			case 4:
				// claws travel less than the wrist
				if row >= 0 && row < len(ranges) && ranges[row] > 300 {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter when done"))

	return sb.String()
}
