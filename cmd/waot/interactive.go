package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/runner"
	"github.com/WebAssembly/wasm-aot-prototype/wasmgen"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1E1E2E")).
			Background(lipgloss.Color("#89B4FA")).
			Padding(0, 1)
	moduleStyle = lipgloss.NewStyle().Faint(true)
	exportStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#89DCEB"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

type interactiveModel struct {
	err       error
	engine    *runner.Engine
	instances []runner.Instance
	output    *bytes.Buffer // spectest prints
	opts      options
	filename  string
	result    string
	units     []unit
	funcs     []funcInfo
	inputs    []textinput.Model
	selected  int
	focusIdx  int
	state     modelState
}

// funcInfo is one export of one loaded module.
type funcInfo struct {
	module string
	inst   runner.Instance
	export runner.Export
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(filename string, units []unit, opts options) *interactiveModel {
	return &interactiveModel{
		filename: filename,
		units:    units,
		output:   &bytes.Buffer{},
		opts:     opts,
		state:    stateSelectFunc,
	}
}

type loadedMsg struct {
	err       error
	engine    *runner.Engine
	instances []runner.Instance
	funcs     []funcInfo
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadModules
}

// loadModules emits and instantiates every module of the script.
func (m *interactiveModel) loadModules() tea.Msg {
	ctx := context.Background()

	e, hosts, err := newEngine(ctx, m.opts, m.output)
	if err != nil {
		return loadedMsg{err: err}
	}

	var (
		instances []runner.Instance
		funcs     []funcInfo
	)
	fail := func(err error) tea.Msg {
		for _, inst := range instances {
			_ = inst.Close(ctx)
		}
		_ = e.Close(ctx)
		return loadedMsg{err: err}
	}
	for _, u := range m.units {
		bin, err := wasmgen.Emit(u.module)
		if err != nil {
			return fail(fmt.Errorf("module %s: %w", u.name, err))
		}
		inst, err := e.Load(ctx, bin, hosts)
		if err != nil {
			return fail(fmt.Errorf("module %s: %w", u.name, err))
		}
		instances = append(instances, inst)
		for _, ex := range inst.Exports() {
			funcs = append(funcs, funcInfo{module: u.name, inst: inst, export: ex})
		}
	}
	return loadedMsg{engine: e, instances: instances, funcs: funcs}
}

func (m *interactiveModel) close() {
	ctx := context.Background()
	for _, inst := range m.instances {
		_ = inst.Close(ctx)
	}
	if m.engine != nil {
		_ = m.engine.Close(ctx)
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.engine, m.instances, m.funcs = msg.engine, msg.instances, msg.funcs
		return m, nil

	case callResultMsg:
		m.result, m.err = msg.result, msg.err
		m.state = stateShowResult
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (msg.String() == "q" && m.state != stateInputArgs) {
			m.close()
			return m, tea.Quit
		}
		switch m.state {
		case stateSelectFunc:
			return m.selectKey(msg)
		case stateInputArgs:
			return m.argsKey(msg)
		case stateShowResult:
			if msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc {
				m.back()
			}
		}
	}
	return m, nil
}

func (m *interactiveModel) selectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.selected = max(m.selected-1, 0)
	case "down", "j":
		m.selected = min(m.selected+1, max(len(m.funcs)-1, 0))
	case "enter":
		if len(m.funcs) == 0 {
			return m, nil
		}
		m.prepareInputs()
		if len(m.inputs) == 0 {
			return m, m.callFunction
		}
		m.state = stateInputArgs
	}
	return m, nil
}

func (m *interactiveModel) argsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m, m.callFunction
	case tea.KeyEsc:
		m.back()
		return m, nil
	case tea.KeyTab, tea.KeyShiftTab:
		step := 1
		if msg.Type == tea.KeyShiftTab {
			step = len(m.inputs) - 1
		}
		m.inputs[m.focusIdx].Blur()
		m.focusIdx = (m.focusIdx + step) % len(m.inputs)
		return m, m.inputs[m.focusIdx].Focus()
	}
	var cmd tea.Cmd
	m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
	return m, cmd
}

// back returns to the export list.
func (m *interactiveModel) back() {
	m.state = stateSelectFunc
	m.inputs = nil
	m.result = ""
	m.err = nil
}

func (m *interactiveModel) prepareInputs() {
	f := m.funcs[m.selected]
	m.inputs = make([]textinput.Model, len(f.export.Sig.Params))
	for i, p := range f.export.Sig.Params {
		in := textinput.New()
		in.Prompt = fmt.Sprintf("%s arg%d = ", valueStyle.Render(p.String()), i)
		in.Placeholder = "0"
		in.CharLimit = 64
		if i == 0 {
			in.Focus()
		}
		m.inputs[i] = in
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callFunction() tea.Msg {
	f := m.funcs[m.selected]
	args, err := parseArgs(f.export.Sig, m.inputs)
	if err != nil {
		return callResultMsg{err: err}
	}

	m.output.Reset()
	out, err := f.inst.Call(context.Background(), f.export.Name, args...)
	if err != nil {
		return callResultMsg{err: err}
	}
	result := "(no result)"
	if f.export.Sig.Result != ast.Void && len(out) > 0 {
		result = runner.FormatValue(f.export.Sig.Result, out[0])
	}
	if m.output.Len() > 0 {
		result += "\n\nprinted:\n" + strings.TrimRight(m.output.String(), "\n")
	}
	return callResultMsg{result: result}
}

func parseArgs(sig runner.Signature, inputs []textinput.Model) ([]uint64, error) {
	args := make([]uint64, len(inputs))
	for i, input := range inputs {
		v, err := runner.ParseValue(sig.Params[i], input.Value())
		if err != nil {
			return nil, fmt.Errorf("arg%d: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return failStyle.Render("Error: "+m.err.Error()) + "\n\n" + hintStyle.Render("q quit")
	}
	if m.engine == nil {
		return "Loading modules..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n\n", headerStyle.Render("waot"), m.filename, moduleStyle.Render("("+m.engine.Name()+")"))

	switch m.state {
	case stateSelectFunc:
		if len(m.funcs) == 0 {
			b.WriteString("No exported functions.\n")
			break
		}
		for i, f := range m.funcs {
			line := formatFunc(f)
			if i == m.selected {
				line = cursorStyle.Render("> ") + line
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}

	case stateInputArgs:
		f := m.funcs[m.selected]
		fmt.Fprintf(&b, "%s\n\n", formatFunc(f))
		for _, input := range m.inputs {
			b.WriteString(input.View() + "\n")
		}

	case stateShowResult:
		f := m.funcs[m.selected]
		fmt.Fprintf(&b, "%s\n\n", exportStyle.Render(f.export.Name))
		if m.err != nil {
			b.WriteString(failStyle.Render(m.err.Error()))
		} else {
			b.WriteString(okStyle.Render(m.result))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + hintStyle.Render(helpText[m.state]))
	return b.String()
}

var helpText = map[modelState]string{
	stateSelectFunc: "j/k move, enter call, q quit",
	stateInputArgs:  "tab/shift+tab switch field, enter call, esc back",
	stateShowResult: "enter back, q quit",
}

func formatFunc(f funcInfo) string {
	params := make([]string, len(f.export.Sig.Params))
	for i, p := range f.export.Sig.Params {
		params[i] = valueStyle.Render(p.String())
	}
	sig := exportStyle.Render(f.export.Name) + "(" + strings.Join(params, ", ") + ")"
	if f.export.Sig.Result != ast.Void {
		sig += " " + valueStyle.Render(f.export.Sig.Result.String())
	}
	return moduleStyle.Render(f.module+":") + " " + sig
}

func runInteractive(filename string, units []unit, opts options) error {
	p := tea.NewProgram(newInteractiveModel(filename, units, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
