package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/edaniels/golog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/teleopbot/pkg/arm"
	"github.com/gwillem/teleopbot/pkg/drive"
	"github.com/gwillem/teleopbot/pkg/joystick"
	"github.com/gwillem/teleopbot/pkg/robot"
	"github.com/gwillem/teleopbot/pkg/teleop"
)

type TeleoperateCommand struct {
	Hz      int    `long:"hz" default:"50" description:"Control loop frequency"`
	Sim     bool   `long:"sim" description:"Run against a simulated rig instead of the hardware"`
	Profile string `short:"p" long:"profile" description:"Bindings profile (YAML); defaults to the built-in profile"`
	LogFile string `long:"log-file" default:"teleopbot.log" description:"Structured log output"`
	Debug   bool   `long:"debug" description:"Log every button press"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	statusHeight = 2 // status row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Wheel colors - distinct colors for each wheel
var wheelColors = map[drive.Wheel]string{
	drive.FrontLeft:  "196", // red
	drive.FrontRight: "226", // yellow
	drive.BackLeft:   "46",  // green
	drive.BackRight:  "51",  // cyan
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
)

type teleopModel struct {
	ctrl       *teleop.Controller
	chart      *streamlinechart.Model
	width      int // terminal width
	height     int // terminal height
	logs       []string
	quitting   bool
	state      teleop.State
	lastWheels *drive.WheelPowers // freeze the chart while idle
}

func (m *teleopModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type stateMsg teleop.State
type logMsg string

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *teleopModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - statusHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *teleopModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialTeleopModel(ctrl *teleop.Controller) teleopModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-1, 1),
	)

	for _, w := range drive.AllWheels() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(wheelColors[w]))
		chart.SetDataSetStyles(w.String(), runes.ThinLineStyle, style)
	}

	return teleopModel{
		ctrl:  ctrl,
		chart: &chart,
	}
}

func (m teleopModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m teleopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		m.state = teleop.State(msg)
		if m.lastWheels == nil || *m.lastWheels != m.state.Wheels {
			for _, w := range drive.AllWheels() {
				m.chart.PushDataSet(w.String(), m.state.Wheels[w])
			}
			m.chart.DrawAll()
			wheels := m.state.Wheels
			m.lastWheels = &wheels
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m teleopModel) View() string {
	if m.quitting {
		return "Teleoperation stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("teleopbot"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.ctrl.Hz()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	sb.WriteString(renderStatus(m.state))
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, w := range drive.AllWheels() {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(wheelColors[w])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+w.String())
	}
	return strings.Join(items, "  ")
}

func renderStatus(s teleop.State) string {
	direction := "forward"
	if s.Multiplier < 0 {
		direction = "reversed"
	}
	spindle := fmt.Sprintf("spindle %+.2f @ %d", s.Arm.SpindlePower, s.Arm.SpindlePosition)
	if s.Arm.SpindleMode == arm.SpindleLimitHold {
		spindle = warnStyle.Render(spindle + " HOLD")
	}
	touch := "up"
	if s.ArmBottomPressed {
		touch = "down"
	}

	fields := []string{
		"drive " + direction,
		fmt.Sprintf("base %+.2f", s.Arm.BasePower),
		spindle,
		fmt.Sprintf("wrist %.3f/%.3f", s.Arm.WristPitch, s.Arm.WristRoll),
		fmt.Sprintf("claws %.1f/%.1f", s.Arm.Claws[arm.Left], s.Arm.Claws[arm.Right]),
		"arm " + touch,
	}
	return statusStyle.Render(strings.Join(fields, "  │  "))
}

// newFileLogger returns a logger writing to path; the terminal belongs to the
// dashboard.
func newFileLogger(path string, debug bool) (golog.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.DisableStacktrace = true
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar().Named("teleopbot"), nil
}

// openGamepads opens both joystick devices. A device that cannot be opened
// is left nil and reads as an idle controller.
func openGamepads(ctx context.Context, paths [2]string, logger golog.Logger) (pads [2]teleop.InputSource, closers []func() error) {
	for i, path := range paths {
		if path == "" {
			continue
		}
		js, err := joystick.NewJoystick(path)
		if err != nil {
			logger.Warnw("gamepad not available", "gamepad", i+1, "device", path, "error", err)
			continue
		}
		go func() {
			if err := js.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Errorw("gamepad lost", "gamepad", i+1, "device", path, "error", err)
			}
		}()
		logger.Infow("gamepad open", "gamepad", i+1, "device", path)
		pads[i] = js
		closers = append(closers, js.Close)
	}
	return pads, closers
}

func (c *TeleoperateCommand) Execute(args []string) error {
	cfg, err := robot.ReadConfig(opts.Config)
	if err != nil {
		if !c.Sim {
			fmt.Fprintf(os.Stderr, "%v\nRun 'teleopbot setup' first.\n", err)
			os.Exit(1)
		}
		cfg = robot.DefaultConfig()
	}

	profile := teleop.DefaultProfile()
	if c.Profile != "" {
		if profile, err = teleop.LoadProfile(c.Profile); err != nil {
			return err
		}
	}

	logger, err := newFileLogger(c.LogFile, c.Debug)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logger.Sync()

	var hw robot.Hardware
	if c.Sim {
		hw = robot.NewSim()
		logger.Info("using simulated rig")
	} else {
		if !cfg.Servos.IsCalibrated() {
			fmt.Fprintln(os.Stderr, "Servos not calibrated. Run 'teleopbot setup' first.")
			os.Exit(1)
		}
		rig, err := robot.Open(cfg, logger)
		if err != nil {
			log.Fatalf("Failed to open rig: %v", err)
		}
		hw = rig
	}
	defer hw.Close()

	bot := teleop.NewRobot(hw, cfg.Arm, logger)
	if err := profile.Apply(bot); err != nil {
		return fmt.Errorf("apply profile: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pads, closers := openGamepads(ctx, cfg.Gamepads, logger)
	defer func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}()

	ctrl := teleop.NewController(bot, pads[0], pads[1], teleop.Config{Hz: c.Hz}, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Start(ctx); err != nil && err != context.Canceled {
			logger.Errorw("controller stopped", "error", err)
		}
	}()

	p := tea.NewProgram(initialTeleopModel(ctrl), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	// Stop the loop and wait for the motors to be zeroed before closing the rig.
	cancel()
	<-done
	return nil
}
