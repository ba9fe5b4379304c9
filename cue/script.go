package cue

import (
	"fmt"
	"strings"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/harvest/prefabs"
	"go.uber.org/zap"
)

const cueDispatchScript = `
if is_callable(on_cue) {
	on_cue(__engine, __cue, __count)
}
`

// ScriptPlayer resolves cues to sounds with a tengo script that defines
// on_cue(engine, cue, count). Script errors are logged and dropped.
type ScriptPlayer struct {
	mu       sync.Mutex
	compiled *tengo.Compiled
	engine   *tengo.ImmutableMap
	counts   map[string]int
	sink     Sink
	log      *zap.Logger
}

// LoadScriptPlayer compiles a script from prefabs/scripts.
func LoadScriptPlayer(name string, sink Sink, logger *zap.Logger) (*ScriptPlayer, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("cue: load script %s: %w", name, err)
	}
	return NewScriptPlayer(src, sink, logger)
}

func NewScriptPlayer(src []byte, sink Sink, logger *zap.Logger) (*ScriptPlayer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	full := string(src) + "\n" + cueDispatchScript
	script := tengo.NewScript([]byte(full))
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__cue", "")
	_ = script.Add("__count", 0)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("cue: compile script: %w", err)
	}

	p := &ScriptPlayer{
		compiled: compiled,
		counts:   make(map[string]int),
		sink:     sink,
		log:      logger,
	}
	p.engine = p.buildEngine()
	return p, nil
}

// PlayCue implements guard.CuePlayer.
func (p *ScriptPlayer) PlayCue(name string) {
	if p == nil || p.compiled == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	count := p.counts[name]
	p.counts[name] = count + 1

	if err := p.run(name, count); err != nil {
		p.log.Debug("cue script failed", zap.String("cue", name), zap.Error(err))
	}
}

func (p *ScriptPlayer) run(name string, count int) error {
	if err := p.compiled.Set("__engine", p.engine); err != nil {
		return err
	}
	if err := p.compiled.Set("__cue", name); err != nil {
		return err
	}
	if err := p.compiled.Set("__count", count); err != nil {
		return err
	}
	return p.compiled.Run()
}

func (p *ScriptPlayer) buildEngine() *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["play"] = &tengo.UserFunction{Name: "play", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if p.sink == nil || len(args) < 1 {
			return tengo.FalseValue, nil
		}
		sound := strings.TrimSpace(objectAsString(args[0]))
		if sound == "" {
			return tengo.FalseValue, nil
		}
		volume := 1.0
		if len(args) > 1 {
			if v, ok := tengo.ToFloat64(args[1]); ok {
				volume = v
			}
		}
		p.sink.Play(sound, volume)
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		p.log.Debug("cue script", zap.String("msg", strings.Join(parts, " ")))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
