package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/whalesim/fluidsync/internal/solver"
)

// LuaForce is a non-pressure force computed by a global Lua function.
//
// The function is called once per particle with a table
// {index, x, y, z, vx, vy, vz, density, dt} and returns the acceleration as
// three numbers. A Lua error stops the force for the rest of that substep.
type LuaForce struct {
	engine *Engine
	fn     string
}

// NewLuaForce binds a force to the named global function.
func (e *Engine) NewLuaForce(fn string) (solver.NonPressureForce, error) {
	if !e.HasFunction(fn) {
		return nil, fmt.Errorf("lua function %q not found", fn)
	}
	return &LuaForce{engine: e, fn: fn}, nil
}

func (f *LuaForce) Name() string { return "lua:" + f.fn }

func (f *LuaForce) Solve(ctx *solver.ForceContext, accel []solver.Vec3) {
	vm := f.engine.vm
	fn := vm.GetGlobal(f.fn)
	if fn == lua.LNil {
		f.engine.log.Error("lua force function not found", zap.String("fn", f.fn))
		return
	}
	p := vm.NewTable()
	p.RawSetString("dt", lua.LNumber(ctx.Dt))
	fluid := ctx.Fluid
	for i, x := range fluid.Positions {
		v := fluid.Velocities[i]
		p.RawSetString("index", lua.LNumber(i))
		p.RawSetString("x", lua.LNumber(x[0]))
		p.RawSetString("y", lua.LNumber(x[1]))
		p.RawSetString("z", lua.LNumber(x[2]))
		p.RawSetString("vx", lua.LNumber(v[0]))
		p.RawSetString("vy", lua.LNumber(v[1]))
		p.RawSetString("vz", lua.LNumber(v[2]))
		p.RawSetString("density", lua.LNumber(ctx.Densities[i]))

		if err := vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    3,
			Protect: true,
		}, p); err != nil {
			f.engine.log.Error("lua force error", zap.String("fn", f.fn), zap.Error(err))
			return
		}
		az := lua.LVAsNumber(vm.Get(-1))
		ay := lua.LVAsNumber(vm.Get(-2))
		ax := lua.LVAsNumber(vm.Get(-3))
		vm.Pop(3)
		accel[i] = accel[i].Add(solver.Vec3{float32(ax), float32(ay), float32(az)})
	}
}
