package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"github.com/qforge-dev/qforge/internal/program"
	"github.com/qforge-dev/qforge/internal/waveform"
)

// translator carries the symbol tables of one program file.
type translator struct {
	waveforms map[string]waveform.Signal
	variables map[string]*program.Variable
}

// opBlockHeaders lists every block type a program body may contain. Bodies
// are walked with Content so unknown blocks are rejected with their source
// range.
var opBlockHeaders = []hcl.BlockHeaderSchema{
	{Type: "play"},
	{Type: "wait"},
	{Type: "set_frequency"},
	{Type: "set_phase"},
	{Type: "reset_phase"},
	{Type: "set_gain"},
	{Type: "set_offset"},
	{Type: "sync"},
	{Type: "acquire"},
	{Type: "measure"},
	{Type: "for_loop"},
	{Type: "loop"},
	{Type: "parallel"},
	{Type: "average"},
	{Type: "acquire_loop"},
}

var bodySchema = &hcl.BodySchema{Blocks: opBlockHeaders}

// Per-block decode targets. Expressions stay undecoded so variable and
// waveform references can be resolved against the symbol tables.
type playBody struct {
	Bus      string         `hcl:"bus"`
	Waveform hcl.Expression `hcl:"waveform"`
}

type waitBody struct {
	Bus      string         `hcl:"bus"`
	Duration hcl.Expression `hcl:"duration"`
}

type writeBody struct {
	Bus   string         `hcl:"bus"`
	Value hcl.Expression `hcl:"value"`
}

type busBody struct {
	Bus string `hcl:"bus"`
}

type syncBody struct {
	Buses []string `hcl:"buses,optional"`
}

type forLoopBody struct {
	Variable hcl.Expression `hcl:"variable"`
	Start    float64        `hcl:"start"`
	Stop     float64        `hcl:"stop"`
	Step     float64        `hcl:"step"`
	Remain   hcl.Body       `hcl:",remain"`
}

type loopBody struct {
	Variable hcl.Expression `hcl:"variable"`
	Values   []float64      `hcl:"values"`
	Remain   hcl.Body       `hcl:",remain"`
}

type shotsBody struct {
	Shots  int      `hcl:"shots"`
	Remain hcl.Body `hcl:",remain"`
}

// body translates an ordered block body into dst.
func (tr *translator) body(src hcl.Body, dst *program.Block) error {
	content, diags := src.Content(bodySchema)
	if diags.HasErrors() {
		return fmt.Errorf("decoding body: %w", diags)
	}
	for _, block := range content.Blocks {
		if err := tr.block(block, dst); err != nil {
			return fmt.Errorf("%s at %s: %w", block.Type, block.DefRange, err)
		}
	}
	return nil
}

func (tr *translator) block(block *hcl.Block, dst *program.Block) error {
	switch block.Type {
	case "play", "measure":
		var b playBody
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return diags
		}
		sig, err := tr.signalRef(b.Waveform)
		if err != nil {
			return err
		}
		if block.Type == "play" {
			dst.Play(b.Bus, sig)
		} else {
			dst.Measure(b.Bus, sig)
		}
	case "wait", "acquire":
		var b waitBody
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return diags
		}
		v, err := tr.value(b.Duration)
		if err != nil {
			return err
		}
		if block.Type == "wait" {
			dst.Wait(b.Bus, v)
		} else {
			dst.Acquire(b.Bus, v)
		}
	case "set_frequency", "set_phase", "set_gain", "set_offset":
		var b writeBody
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return diags
		}
		v, err := tr.value(b.Value)
		if err != nil {
			return err
		}
		switch block.Type {
		case "set_frequency":
			dst.SetFrequency(b.Bus, v)
		case "set_phase":
			dst.SetPhase(b.Bus, v)
		case "set_gain":
			dst.SetGain(b.Bus, v)
		case "set_offset":
			dst.SetOffset(b.Bus, v)
		}
	case "reset_phase":
		var b busBody
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return diags
		}
		dst.ResetPhase(b.Bus)
	case "sync":
		var b syncBody
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return diags
		}
		dst.Sync(b.Buses...)
	case "for_loop":
		b, v, err := tr.forLoopHeader(block)
		if err != nil {
			return err
		}
		loop, err := dst.ForLoop(v, b.Start, b.Stop, b.Step)
		if err != nil {
			return err
		}
		return tr.body(b.Remain, &loop.Block)
	case "loop":
		var b loopBody
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return diags
		}
		v, err := tr.variableRef(b.Variable)
		if err != nil {
			return err
		}
		loop, err := dst.Loop(v, b.Values)
		if err != nil {
			return err
		}
		return tr.body(b.Remain, &loop.Block)
	case "parallel":
		return tr.parallel(block.Body, dst)
	case "average", "acquire_loop":
		var b shotsBody
		if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
			return diags
		}
		if b.Shots <= 0 {
			return fmt.Errorf("shots must be positive, got %d", b.Shots)
		}
		if block.Type == "average" {
			return tr.body(b.Remain, &dst.Average(b.Shots).Block)
		}
		return tr.body(b.Remain, &dst.AcquireLoop(b.Shots).Block)
	default:
		return fmt.Errorf("unsupported block type %q", block.Type)
	}
	return nil
}

// parallel walks a parallel block: bare for_loop headers declare the
// lockstep sweeps, every other block forms the shared body.
func (tr *translator) parallel(src hcl.Body, dst *program.Block) error {
	content, diags := src.Content(bodySchema)
	if diags.HasErrors() {
		return fmt.Errorf("decoding parallel body: %w", diags)
	}
	var loops []*program.ForLoop
	var bodyBlocks []*hcl.Block
	for _, block := range content.Blocks {
		if block.Type != "for_loop" {
			bodyBlocks = append(bodyBlocks, block)
			continue
		}
		b, v, err := tr.forLoopHeader(block)
		if err != nil {
			return fmt.Errorf("for_loop at %s: %w", block.DefRange, err)
		}
		if _, diags := b.Remain.Content(&hcl.BodySchema{}); diags.HasErrors() {
			return fmt.Errorf("for_loop at %s: loops inside parallel declare the sweep only, the body is shared", block.DefRange)
		}
		loop, err := program.NewForLoop(v, b.Start, b.Stop, b.Step)
		if err != nil {
			return err
		}
		loops = append(loops, loop)
	}
	par, err := program.NewParallel(loops)
	if err != nil {
		return err
	}
	dst.Append(par)
	for _, block := range bodyBlocks {
		if err := tr.block(block, &par.Block); err != nil {
			return fmt.Errorf("%s at %s: %w", block.Type, block.DefRange, err)
		}
	}
	return nil
}

func (tr *translator) forLoopHeader(block *hcl.Block) (forLoopBody, *program.Variable, error) {
	var b forLoopBody
	if diags := gohcl.DecodeBody(block.Body, nil, &b); diags.HasErrors() {
		return b, nil, diags
	}
	v, err := tr.variableRef(b.Variable)
	if err != nil {
		return b, nil, err
	}
	return b, v, nil
}

// variableRef resolves a `var.<name>` expression against the declared
// variables.
func (tr *translator) variableRef(expr hcl.Expression) (*program.Variable, error) {
	root, attr, err := traversal(expr)
	if err != nil || root != "var" {
		return nil, fmt.Errorf("expected a var.<name> reference at %s", expr.Range())
	}
	v, ok := tr.variables[attr]
	if !ok {
		return nil, fmt.Errorf("undeclared variable %q at %s", attr, expr.Range())
	}
	return v, nil
}

// signalRef resolves a `waveform.<name>` expression against the defined
// waveforms.
func (tr *translator) signalRef(expr hcl.Expression) (waveform.Signal, error) {
	root, attr, err := traversal(expr)
	if err != nil || root != "waveform" {
		return nil, fmt.Errorf("expected a waveform.<name> reference at %s", expr.Range())
	}
	sig, ok := tr.waveforms[attr]
	if !ok {
		return nil, fmt.Errorf("undefined waveform %q at %s", attr, expr.Range())
	}
	return sig, nil
}

// value translates a parameter expression: either a var.<name> reference or
// a constant number.
func (tr *translator) value(expr hcl.Expression) (program.Value, error) {
	if root, attr, err := traversal(expr); err == nil {
		if root != "var" {
			return program.Value{}, fmt.Errorf("unknown reference %s.%s at %s", root, attr, expr.Range())
		}
		v, ok := tr.variables[attr]
		if !ok {
			return program.Value{}, fmt.Errorf("undeclared variable %q at %s", attr, expr.Range())
		}
		return program.Ref(v), nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return program.Value{}, diags
	}
	if val.Type() != cty.Number {
		return program.Value{}, fmt.Errorf("expected a number at %s, got %s", expr.Range(), val.Type().FriendlyName())
	}
	f, _ := val.AsBigFloat().Float64()
	return program.Lit(f), nil
}

// traversal splits a two-step scope traversal like waveform.x90.
func traversal(expr hcl.Expression) (root, attr string, err error) {
	tv, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() {
		return "", "", diags
	}
	if len(tv) != 2 {
		return "", "", fmt.Errorf("expected a two-part reference at %s", expr.Range())
	}
	rootStep, ok := tv[0].(hcl.TraverseRoot)
	if !ok {
		return "", "", fmt.Errorf("expected a named reference at %s", expr.Range())
	}
	attrStep, ok := tv[1].(hcl.TraverseAttr)
	if !ok {
		return "", "", fmt.Errorf("expected an attribute reference at %s", expr.Range())
	}
	return rootStep.Name, attrStep.Name, nil
}
